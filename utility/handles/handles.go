// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handles maps Go values to integer ids that can be stored in native
// memory. Native code may hold an id for as long as it likes; the value stays
// reachable until the id is deleted.
package handles

import (
	"errors"
	"sync"
)

// ErrUnknownHandle is returned when an id is not, or no longer, registered.
var ErrUnknownHandle = errors.New("handle is not registered")

// Handle is a registered id. The zero Handle is never issued, so native
// code can keep using NULL for "nothing attached".
type Handle uintptr

// Table is a concurrent id to value map. The zero value is ready to use.
type Table struct {
	mutex  sync.RWMutex
	values map[Handle]interface{}
	next   Handle
}

// New registers v and returns its handle.
func (t *Table) New(v interface{}) Handle {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.values == nil {
		t.values = make(map[Handle]interface{})
	}
	t.next++
	h := t.next
	t.values[h] = v
	return h
}

// Value returns the value registered under h.
func (t *Table) Value(h Handle) (interface{}, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	v, ok := t.values[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return v, nil
}

// Delete unregisters h and returns the value it held. Deleting twice
// returns ErrUnknownHandle the second time.
func (t *Table) Delete(h Handle) (interface{}, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	v, ok := t.values[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	delete(t.values, h)
	return v, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.values)
}
