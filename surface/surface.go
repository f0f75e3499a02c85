// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package surface binds a window to a presentable Vulkan surface.
package surface

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// Source is the window side of the surface: it knows which instance
// extensions it needs and how to create the native surface.
type Source interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// SupportDetails is a snapshot of what the surface supports on a
// physical device. It is queried fresh for every swapchain creation.
type SupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports if a swapchain can be built at all.
func (d SupportDetails) Adequate() bool {
	return len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// New creates the surface from source. The surface is owned by the
// returned value and must be destroyed before the instance.
func New(instance vk.Instance, source Source) (*Surface, error) {
	handle, err := source.CreateSurface(instance)
	if err != nil {
		return nil, err
	}
	if handle == vk.NullSurface {
		return nil, errors.New("surface.New(): window returned a null surface")
	}
	return &Surface{
		instance: instance,
		handle:   handle,
	}, nil
}

// Surface is the presentation surface.
type Surface struct {
	instance vk.Instance
	handle   vk.Surface
}

// Handle returns the native surface.
func (s *Surface) Handle() vk.Surface {
	return s.handle
}

// SupportsPresent reports if the queue family can present to this surface.
func (s *Surface) SupportsPresent(device vk.PhysicalDevice, family uint32) (bool, error) {
	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(device, family, s.handle, &supported)); err != nil {
		return false, errors.New("vk.GetPhysicalDeviceSurfaceSupport(): " + err.Error())
	}
	return supported.B(), nil
}

// Support queries capabilities, formats and present modes.
func (s *Surface) Support(device vk.PhysicalDevice) (SupportDetails, error) {
	var details SupportDetails

	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(device, s.handle, &details.Capabilities)); err != nil {
		return details, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	details.Capabilities.Deref()
	details.Capabilities.CurrentExtent.Deref()
	details.Capabilities.MinImageExtent.Deref()
	details.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, s.handle, &formatCount, nil)); err != nil {
		return details, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	if formatCount > 0 {
		details.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device, s.handle, &formatCount, details.Formats)); err != nil {
			return details, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
		}
		for i := range details.Formats {
			details.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, s.handle, &modeCount, nil)); err != nil {
		return details, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	if modeCount > 0 {
		details.PresentModes = make([]vk.PresentMode, modeCount)
		if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device, s.handle, &modeCount, details.PresentModes)); err != nil {
			return details, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
		}
	}
	return details, nil
}

// Destroy releases the surface. Safe on nil.
func (s *Surface) Destroy() {
	if s == nil || s.handle == vk.NullSurface {
		return
	}
	vk.DestroySurface(s.instance, s.handle, nil)
	s.handle = vk.NullSurface
}
