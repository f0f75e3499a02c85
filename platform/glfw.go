// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/koru3d/vkframe/core"
	vk "github.com/vulkan-go/vulkan"
)

// GLFWWindow is a window backed by GLFW.
type GLFWWindow struct {
	resizeState
	window *glfw.Window
}

// NewGLFWWindow initialises GLFW and opens a resizable window without a
// client API.
func NewGLFWWindow(cfg core.WindowConfiguration) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.New("glfw.Init(): " + err.Error())
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw.VulkanSupported(): no Vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.New("glfw.CreateWindow(): " + err.Error())
	}

	w := &GLFWWindow{window: window}
	window.SetFramebufferSizeCallback(func(*glfw.Window, int, int) {
		w.notify()
	})
	window.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
	return w, nil
}

// Extent implements Window
func (w *GLFWWindow) Extent() (uint32, uint32) {
	return drawable(w.window.GetFramebufferSize())
}

// WaitEvents implements Window
func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

// PollEvents implements Window
func (w *GLFWWindow) PollEvents() bool {
	glfw.PollEvents()
	return w.window.ShouldClose()
}

// RequiredInstanceExtensions implements surface.Source
func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements surface.Source
func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.New("glfw.CreateWindowSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// ProcAddr implements Window
func (w *GLFWWindow) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// Destroy closes the window and terminates GLFW.
func (w *GLFWWindow) Destroy() {
	if w == nil || w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
}
