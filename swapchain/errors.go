// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import "errors"

// Errors returned by the swapchain, match with errors.Is.
var (
	ErrAcquireFailed   = errors.New("swapchain image acquisition failed")
	ErrSubmitFailed    = errors.New("frame submission failed")
	ErrPresentFailed   = errors.New("presentation failed")
	ErrImageIndex      = errors.New("swapchain image index out of range")
	ErrNoSurfaceFormat = errors.New("surface reports no formats")
)
