// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package platform opens Vulkan capable windows with SDL2 or GLFW.
package platform

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/koru3d/vkframe/core"
	vk "github.com/vulkan-go/vulkan"
)

// Window backends
const (
	BackendSDL  = "sdl"
	BackendGLFW = "glfw"
)

// ErrUnknownBackend is returned for a backend name that is not supported.
var ErrUnknownBackend = errors.New("unknown window backend")

// Window is a native window that can host a Vulkan surface.
type Window interface {
	// Extent is the drawable size in pixels, zero while minimized.
	Extent() (width, height uint32)
	WasResized() bool
	ResetResized()
	// WaitEvents blocks until an event arrives and processes it.
	WaitEvents()
	// PollEvents processes pending events and reports whether the user
	// asked to quit.
	PollEvents() (quit bool)

	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// ProcAddr is the loader entry point the windowing library resolved.
	ProcAddr() unsafe.Pointer
	Destroy()
}

// NewWindow opens a window with the configured backend.
func NewWindow(cfg core.WindowConfiguration) (Window, error) {
	switch cfg.Backend {
	case BackendSDL, "":
		return NewSDLWindow(cfg)
	case BackendGLFW:
		return NewGLFWWindow(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// resizeState tracks size change notifications between frames.
type resizeState struct {
	resized bool
}

func (r *resizeState) notify()          { r.resized = true }
func (r *resizeState) WasResized() bool { return r.resized }
func (r *resizeState) ResetResized()    { r.resized = false }

// drawable converts a signed size reported by a windowing library.
func drawable(width, height int) (uint32, uint32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return uint32(width), uint32(height)
}
