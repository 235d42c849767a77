// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build linux && cgo

package libgbm

// #include <gbm.h>
import "C"

import (
	"sync"
	"unsafe"

	"github.com/devblok/gbm/native"
	log "github.com/sirupsen/logrus"
)

// callbacks holds the Go destroy function for every user data value that
// is currently stored in a gbm_bo.
var callbacks = struct {
	sync.Mutex
	fns map[uintptr]native.DestroyFunc
}{fns: make(map[uintptr]native.DestroyFunc)}

//export goDestroyUserData
func goDestroyUserData(bo *C.struct_gbm_bo, data unsafe.Pointer) {
	key := uintptr(data)
	callbacks.Lock()
	fn, ok := callbacks.fns[key]
	delete(callbacks.fns, key)
	callbacks.Unlock()
	if !ok {
		log.WithField("data", key).Warn("libgbm: user data destroyed without a callback")
		return
	}
	fn(native.BoPtr(unsafe.Pointer(bo)), key)
}

