// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the engine wide configuration, logging and time services.
package core

// Destroyable is implemented by every owner of native resources.
// Destroy must be safe to call on a partially constructed value.
type Destroyable interface {
	Destroy()
}
