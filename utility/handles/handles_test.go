// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handles_test

import (
	"sync"
	"testing"

	"github.com/devblok/gbm/utility/handles"
)

func TestNewValueDelete(t *testing.T) {
	var table handles.Table

	h := table.New("payload")
	if h == 0 {
		t.Error("zero handle issued")
	}

	v, err := table.Value(h)
	if err != nil {
		t.Error(err)
	}
	if v.(string) != "payload" {
		t.Errorf("unexpected value %v", v)
	}

	if _, err := table.Delete(h); err != nil {
		t.Error(err)
	}
	if _, err := table.Delete(h); err != handles.ErrUnknownHandle {
		t.Errorf("second delete returned %v", err)
	}
	if _, err := table.Value(h); err != handles.ErrUnknownHandle {
		t.Errorf("value after delete returned %v", err)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	var (
		table handles.Table
		wg    sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := table.New(i)
			if _, err := table.Delete(h); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if table.Len() != 0 {
		t.Errorf("%d handles left behind", table.Len())
	}
}
