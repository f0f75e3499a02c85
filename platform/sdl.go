// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"errors"
	"unsafe"

	"github.com/koru3d/vkframe/core"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

const sdlWaitTimeout = 100

// SDLWindow is a window backed by SDL2.
type SDLWindow struct {
	resizeState
	window *sdl.Window
	// quit is held until PollEvents reports it.
	quit bool
}

// NewSDLWindow initialises SDL video, loads the Vulkan library through SDL
// and opens a resizable window.
func NewSDLWindow(cfg core.WindowConfiguration) (*SDLWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.New("sdl.Init(): " + err.Error())
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.New("sdl.VulkanLoadLibrary(): " + err.Error())
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.New("sdl.CreateWindow(): " + err.Error())
	}
	return &SDLWindow{window: window}, nil
}

// Extent implements Window
func (w *SDLWindow) Extent() (uint32, uint32) {
	width, height := w.window.VulkanGetDrawableSize()
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	return drawable(int(width), int(height))
}

// WaitEvents implements Window. A quit seen here is reported by the next
// PollEvents.
func (w *SDLWindow) WaitEvents() {
	if event := sdl.WaitEventTimeout(sdlWaitTimeout); event != nil {
		w.handle(event)
	}
	w.drain()
}

// PollEvents implements Window. Escape also quits.
func (w *SDLWindow) PollEvents() bool {
	w.drain()
	return w.takeQuit()
}

func (w *SDLWindow) drain() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

func (w *SDLWindow) takeQuit() bool {
	quit := w.quit
	w.quit = false
	return quit
}

func (w *SDLWindow) handle(event sdl.Event) {
	switch et := event.(type) {
	case *sdl.WindowEvent:
		switch et.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED,
			sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
			w.notify()
		}
	case *sdl.KeyboardEvent:
		if et.Keysym.Sym == sdl.K_ESCAPE {
			w.quit = true
		}
	case *sdl.QuitEvent:
		w.quit = true
	}
}

// RequiredInstanceExtensions implements surface.Source
func (w *SDLWindow) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements surface.Source
func (w *SDLWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.New("sdl.VulkanCreateSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

// ProcAddr implements Window
func (w *SDLWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// Destroy closes the window and shuts SDL down.
func (w *SDLWindow) Destroy() {
	if w == nil || w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
