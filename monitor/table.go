// File: monitor/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Side table mapping object identity to its monitor slot.

package monitor

import (
	"container/list"
	"reflect"
	"sync"

	"github.com/momentics/hioload-threads/api"
)

var table sync.Map // object identity -> *slot

// slot is the lock/condvar pair attached to one object.
type slot struct {
	mu        sync.Mutex // guards everything below
	owner     uint64     // goroutine id of the holder, gid.None when free
	recursion int
	entry     list.List // *node, threads blocked in Enter
	cond      list.List // *node, threads blocked in Wait
}

// slotFor resolves (or creates) the monitor slot for obj. Only reference
// kinds with stable comparable identity are accepted.
func slotFor(obj any) (*slot, error) {
	if obj == nil {
		return nil, api.ErrInvalidArgument
	}
	switch reflect.TypeOf(obj).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
	default:
		return nil, api.ErrInvalidArgument
	}
	if s, ok := table.Load(obj); ok {
		return s.(*slot), nil
	}
	s, _ := table.LoadOrStore(obj, &slot{})
	return s.(*slot), nil
}
