// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package scene

import "sync/atomic"

// ObjectID identifies an object within one World.
type ObjectID uint64

// IDAllocator hands out increasing object ids, starting at 1.
// It is safe for concurrent use.
type IDAllocator struct {
	last uint64
}

// Next returns a fresh id.
func (a *IDAllocator) Next() ObjectID {
	return ObjectID(atomic.AddUint64(&a.last, 1))
}
