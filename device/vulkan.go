// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/koru3d/vkframe/core"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slices"
)

// Layer and extension names used for validation.
const (
	ValidationLayer      = "VK_LAYER_KHRONOS_validation"
	DebugReportExtension = "VK_EXT_debug_report"
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Koru3D\x00",
	PEngineName:        "Koru3D\x00",
}

// InstanceConfiguration describes the requested instance.
type InstanceConfiguration struct {
	// DebugMode enables the validation layer, when installed,
	// and routes its reports to the logger.
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// NewInstance creates a Vulkan instance. procAddr may be nil, in which case
// the default loader is used.
func NewInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration, logger log.FieldLogger) (*Instance, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	extensions := core.CStrings(cfg.Extensions)
	layers := core.CStrings(cfg.Layers)
	debug := false
	if cfg.DebugMode {
		if slices.Contains(instanceLayers(), ValidationLayer) {
			layers = append(layers, core.CString(ValidationLayer))
			extensions = append(extensions, core.CString(DebugReportExtension))
			debug = true
		} else {
			logger.Warnf("%s requested but not installed", ValidationLayer)
		}
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vk.InitInstance(): " + err.Error())
	}

	v := &Instance{
		handle: instance,
		log:    logger,
	}

	if debug {
		dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType: vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReporter(logger),
		}
		if err := vk.Error(vk.CreateDebugReportCallback(instance, &dbgCreateInfo, nil, &v.debug)); err != nil {
			v.Destroy()
			return nil, errors.New("vk.CreateDebugReportCallback(): " + err.Error())
		}
	}

	devices, err := enumerateDevices(instance)
	if err != nil {
		v.Destroy()
		return nil, err
	}
	v.availableDevices = devices

	return v, nil
}

// Instance describes a Vulkan API Instance
type Instance struct {
	core.Destroyable

	availableDevices []vk.PhysicalDevice
	debug            vk.DebugReportCallback
	handle           vk.Instance
	log              log.FieldLogger
}

// Handle returns the native instance.
func (v *Instance) Handle() vk.Instance {
	return v.handle
}

// AvailableDevices returns handles of every physical device.
func (v *Instance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// PhysicalDevicesInfo describes every physical device.
func (v *Instance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i, pd := range v.availableDevices {
		pdi[i] = describe(pd)
	}
	return pdi
}

// Destroy releases the debug callback and then the instance.
func (v *Instance) Destroy() {
	if v == nil {
		return
	}
	v.availableDevices = nil
	if v.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(v.handle, v.debug, nil)
		v.debug = vk.NullDebugReportCallback
	}
	if v.handle != nil {
		vk.DestroyInstance(v.handle, nil)
		v.handle = nil
	}
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

func instanceLayers() []string {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names
}

func debugReporter(logger log.FieldLogger) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		entry := logger.WithFields(log.Fields{
			"layer": pLayerPrefix,
			"code":  messageCode,
		})
		switch reportLevel(flags) {
		case log.ErrorLevel:
			entry.Error(pMessage)
		case log.WarnLevel:
			entry.Warn(pMessage)
		case log.DebugLevel:
			entry.Debug(pMessage)
		default:
			entry.Info(pMessage)
		}
		return vk.Bool32(vk.False)
	}
}

func reportLevel(flags vk.DebugReportFlags) log.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return log.ErrorLevel
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return log.WarnLevel
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}
