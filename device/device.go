// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koru3d/vkframe/core"
	"github.com/koru3d/vkframe/surface"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int      `json:"id" yaml:"id"`
	VendorID      int      `json:"vendorId" yaml:"vendorId"`
	DriverVersion int      `json:"driverVersion" yaml:"driverVersion"`
	Name          string   `json:"name" yaml:"name"`
	Invalid       bool     `json:"invalid" yaml:"invalid"`
	Extensions    []string `json:"extensions" yaml:"extensions"`
	Layers        []string `json:"layers" yaml:"layers"`
	Memory        uint64   `json:"memory" yaml:"memory"`
}

func describe(pd vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	extensions, err := deviceExtensions(pd)
	if err != nil {
		info.Invalid = true
	}
	info.Extensions = extensions

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	return info
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, props)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// Configuration describes the logical device.
type Configuration struct {
	// Extensions required from the device, the swapchain
	// extension is always added.
	Extensions []string
}

// New selects a physical device able to present to the window's surface and
// creates the logical device on it. On success the device owns instance and
// destroys it with itself. On failure the caller still owns instance.
func New(instance *Instance, source surface.Source, cfg Configuration, logger log.FieldLogger) (*Device, error) {
	srf, err := surface.New(instance.Handle(), source)
	if err != nil {
		return nil, err
	}

	d := &Device{
		instance: instance,
		surface:  srf,
		log:      logger,
	}

	required := requiredExtensions(cfg.Extensions)
	if err := d.pickPhysicalDevice(required); err != nil {
		srf.Destroy()
		return nil, err
	}

	if err := d.createLogicalDevice(required); err != nil {
		srf.Destroy()
		return nil, err
	}

	if err := d.createCommandPool(); err != nil {
		d.release()
		return nil, err
	}

	d.memory = NewMemoryAllocator(d.handle, d.physical)

	logger.WithFields(log.Fields{
		"device":   vk.ToString(d.properties.DeviceName[:]),
		"graphics": d.families.Graphics,
		"present":  d.families.Present,
	}).Info("graphics device ready")
	return d, nil
}

// Device is the graphics device: it owns the logical device, its queues,
// the command pool and the presentation surface.
type Device struct {
	core.Destroyable

	instance *Instance
	surface  *surface.Surface

	physical   vk.PhysicalDevice
	properties vk.PhysicalDeviceProperties
	limits     vk.PhysicalDeviceLimits
	families   QueueFamilyIndices

	handle        vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	commandPool   vk.CommandPool
	memory        *MemoryAllocator

	log log.FieldLogger
}

func requiredExtensions(extra []string) []string {
	required := []string{vk.KhrSwapchainExtensionName}
	for _, ext := range extra {
		ext = core.GoString(ext)
		if ext != vk.KhrSwapchainExtensionName {
			required = append(required, ext)
		}
	}
	return required
}

func (d *Device) pickPhysicalDevice(required []string) error {
	devices := d.instance.AvailableDevices()
	idx, families, err := firstSuitable(len(devices), func(i int) (QueueFamilyIndices, error) {
		return d.suitable(devices[i], required)
	})
	if err != nil {
		return err
	}

	pd := devices[idx]
	d.physical = pd
	d.families = families
	vk.GetPhysicalDeviceProperties(pd, &d.properties)
	d.properties.Deref()
	d.limits = d.properties.Limits
	d.limits.Deref()
	return nil
}

// firstSuitable returns the first of n adapters that try accepts, collecting
// the rejection reasons of the others.
func firstSuitable(n int, try func(i int) (QueueFamilyIndices, error)) (int, QueueFamilyIndices, error) {
	var reasons []string
	for i := 0; i < n; i++ {
		families, err := try(i)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("device %d: %s", i, err))
			continue
		}
		return i, families, nil
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no physical devices")
	}
	return -1, QueueFamilyIndices{}, fmt.Errorf("%w: %s", ErrDeviceUnavailable, strings.Join(reasons, "; "))
}

// suitable queries one adapter. A failed query rejects only that adapter.
func (d *Device) suitable(pd vk.PhysicalDevice, required []string) (QueueFamilyIndices, error) {
	families, err := d.queueFamilies(pd)
	if err != nil {
		return QueueFamilyIndices{}, err
	}
	extensions, err := deviceExtensions(pd)
	if err != nil {
		return QueueFamilyIndices{}, err
	}
	support, err := d.surface.Support(pd)
	if err != nil {
		return QueueFamilyIndices{}, err
	}
	if err := checkSuitable(families, extensions, required, support); err != nil {
		return QueueFamilyIndices{}, err
	}
	return families, nil
}

func (d *Device) queueFamilies(pd vk.PhysicalDevice) (QueueFamilyIndices, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)
	for i := range props {
		props[i].Deref()
	}

	var supportErr error
	families := FindQueueFamilies(props, func(family uint32) bool {
		ok, err := d.surface.SupportsPresent(pd, family)
		if err != nil && supportErr == nil {
			supportErr = err
		}
		return ok
	})
	return families, supportErr
}

func (d *Device) createLogicalDevice(extensions []string) error {
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range d.families.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	names := core.CStrings(extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(names)),
		PpEnabledExtensionNames: names,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(d.physical, &dci, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	d.handle = device

	vk.GetDeviceQueue(device, d.families.Graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(device, d.families.Present, 0, &d.presentQueue)
	return nil
}

func (d *Device) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.Graphics,
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit |
			vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.handle, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	d.commandPool = commandPool
	return nil
}

// Handle returns the logical device.
func (d *Device) Handle() vk.Device {
	return d.handle
}

// Physical returns the selected physical device.
func (d *Device) Physical() vk.PhysicalDevice {
	return d.physical
}

// Surface returns the presentation surface.
func (d *Device) Surface() *surface.Surface {
	return d.surface
}

// SurfaceSupport queries the surface support of the selected device.
func (d *Device) SurfaceSupport() (surface.SupportDetails, error) {
	return d.surface.Support(d.physical)
}

// Families returns the graphics and present queue families.
func (d *Device) Families() QueueFamilyIndices {
	return d.families
}

// GraphicsQueue returns the graphics queue.
func (d *Device) GraphicsQueue() vk.Queue {
	return d.graphicsQueue
}

// PresentQueue returns the present queue, it may equal the graphics queue.
func (d *Device) PresentQueue() vk.Queue {
	return d.presentQueue
}

// CommandPool returns the graphics command pool.
func (d *Device) CommandPool() vk.CommandPool {
	return d.commandPool
}

// Memory returns the device memory allocator.
func (d *Device) Memory() *MemoryAllocator {
	return d.memory
}

// Name returns the adapter name.
func (d *Device) Name() string {
	return vk.ToString(d.properties.DeviceName[:])
}

// MinUniformBufferOffsetAlignment is handed to buffer allocation code.
func (d *Device) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(d.limits.MinUniformBufferOffsetAlignment)
}

// MaxSampleCount is the highest sample count usable for both
// color and depth framebuffer attachments.
func (d *Device) MaxSampleCount() vk.SampleCountFlagBits {
	return maxSampleCount(d.limits.FramebufferColorSampleCounts & d.limits.FramebufferDepthSampleCounts)
}

// WaitIdle blocks until all submitted work on the device has completed.
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.handle)); err != nil {
		return errors.New("vk.DeviceWaitIdle(): " + err.Error())
	}
	return nil
}

// Destroy tears the device down in order: command pool, logical device,
// surface, then the instance with its debug callback.
func (d *Device) Destroy() {
	if d == nil {
		return
	}
	d.release()
	d.instance.Destroy()
}

func (d *Device) release() {
	if d.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.handle, d.commandPool, nil)
		d.commandPool = vk.NullCommandPool
	}
	if d.handle != nil {
		vk.DestroyDevice(d.handle, nil)
		d.handle = nil
	}
	d.surface.Destroy()
}
