// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"io"

	"github.com/devblok/gbm/native"
	"github.com/devblok/gbm/utility/handles"
	log "github.com/sirupsen/logrus"
)

// userData keeps attached values reachable while native memory holds
// nothing but their handle.
var userData handles.Table

// payload boxes one attached value of any type.
type payload struct {
	value interface{}
}

// release runs the value's own cleanup, if it has one.
func (p *payload) release() {
	c, ok := p.value.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("gbm: closing user data failed")
	}
}

// destroyUserData is the callback the native layer runs while tearing down
// a buffer that carries user data.
func destroyUserData(bo native.BoPtr, data uintptr) {
	v, err := userData.Delete(handles.Handle(data))
	if err != nil {
		log.WithFields(log.Fields{"bo": bo, "data": data}).Warn("gbm: user data handle already released")
		return
	}
	v.(*payload).release()
}

// SetUserData attaches v to the buffer. It stays attached for the native
// lifetime of the buffer, across surface lock cycles, and is released when
// the native layer destroys the buffer. If v implements io.Closer, Close is
// called exactly once at that point. Attaching to a buffer that already
// carries a value returns ErrUserDataSet; call ClearUserData first.
func (b *Bo) SetUserData(v interface{}) error {
	if b.ptr == 0 {
		return ErrDestroyed
	}
	if b.dev.backend.BoUserData(b.ptr) != 0 {
		return ErrUserDataSet
	}
	h := userData.New(&payload{value: v})
	b.dev.backend.BoSetUserData(b.ptr, uintptr(h), destroyUserData)
	return nil
}

// HasUserData reports whether a value is attached.
func (b *Bo) HasUserData() bool {
	if b.ptr == 0 {
		return false
	}
	return b.dev.backend.BoUserData(b.ptr) != 0
}

// ClearUserData detaches the current value and releases it right away.
func (b *Bo) ClearUserData() error {
	if b.ptr == 0 {
		return ErrDestroyed
	}
	data := b.dev.backend.BoUserData(b.ptr)
	if data == 0 {
		return ErrNoUserData
	}
	b.dev.backend.BoSetUserData(b.ptr, 0, nil)
	destroyUserData(b.ptr, data)
	return nil
}

func (b *Bo) payload() (*payload, error) {
	if b.ptr == 0 {
		return nil, ErrDestroyed
	}
	data := b.dev.backend.BoUserData(b.ptr)
	if data == 0 {
		return nil, ErrNoUserData
	}
	v, err := userData.Value(handles.Handle(data))
	if err != nil {
		return nil, ErrUserDataLost
	}
	p, ok := v.(*payload)
	if !ok {
		return nil, ErrUserDataLost
	}
	return p, nil
}

// UserData returns the value attached to b if it is a T. It returns false
// when nothing is attached or the value has another type.
func UserData[T any](b *Bo) (T, bool) {
	var zero T
	p, err := b.payload()
	if err != nil {
		return zero, false
	}
	v, ok := p.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// UpdateUserData calls fn with a pointer to the attached T and stores the
// result back. It returns false, without calling fn, when nothing is
// attached or the value has another type.
func UpdateUserData[T any](b *Bo, fn func(*T)) bool {
	p, err := b.payload()
	if err != nil {
		return false
	}
	v, ok := p.value.(T)
	if !ok {
		return false
	}
	fn(&v)
	p.value = v
	return true
}
