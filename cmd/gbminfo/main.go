// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/gbm/core"
	"github.com/devblok/gbm/native"
	_ "github.com/devblok/gbm/native/libgbm"
	_ "github.com/devblok/gbm/native/soft"
)

var (
	envFile  = flag.String("env", "", "Read configuration from the given .env file")
	backends = flag.Bool("backends", false, "List registered backends and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if *backends {
		for _, name := range native.List() {
			fmt.Println(name)
		}
		return nil
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		return err
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		return err
	}

	session, err := core.OpenDevice(cfg.Device)
	if err != nil {
		return err
	}
	defer session.Close()

	info, err := session.Device.Info()
	if err != nil {
		return err
	}

	bytes, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", bytes)
	return nil
}
