// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "errors"

// Errors returned by the device, match with errors.Is.
var (
	// ErrDeviceUnavailable no adapter can drive the surface.
	ErrDeviceUnavailable = errors.New("no suitable graphics device")

	// ErrNoSuitableMemory no memory type satisfies the request.
	ErrNoSuitableMemory = errors.New("suitable memory type not found")

	// ErrNoSupportedFormat none of the candidate formats has the features.
	ErrNoSupportedFormat = errors.New("no supported format")

	ErrBufferOverflow = errors.New("buffer too small")
)
