// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"testing"

	"github.com/koru3d/vkframe/surface"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func family(flags vk.QueueFlagBits, count uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(flags), QueueCount: count}
}

func presentOn(families ...uint32) func(uint32) bool {
	return func(f uint32) bool {
		for _, p := range families {
			if p == f {
				return true
			}
		}
		return false
	}
}

func TestFindQueueFamiliesShared(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit|vk.QueueComputeBit, 16),
		family(vk.QueueTransferBit, 2),
	}
	indices := FindQueueFamilies(families, presentOn(0))

	assert.True(t, indices.Complete())
	assert.True(t, indices.Shared())
	assert.Equal(t, []uint32{0}, indices.Unique())
}

func TestFindQueueFamiliesSeparate(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueTransferBit, 1),
		family(vk.QueueGraphicsBit, 1),
		family(vk.QueueComputeBit, 1),
	}
	indices := FindQueueFamilies(families, presentOn(2))

	require.True(t, indices.Complete())
	assert.Equal(t, uint32(1), indices.Graphics)
	assert.Equal(t, uint32(2), indices.Present)
	assert.Equal(t, []uint32{1, 2}, indices.Unique())
}

func TestFindQueueFamiliesSkipsEmptyFamilies(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit, 0),
		family(vk.QueueGraphicsBit, 1),
	}
	indices := FindQueueFamilies(families, presentOn(0, 1))
	assert.Equal(t, uint32(1), indices.Graphics)
	assert.Equal(t, uint32(1), indices.Present)
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	indices := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, presentOn())
	assert.False(t, indices.Complete())
}

func adequate() surface.SupportDetails {
	return surface.SupportDetails{
		Formats:      []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Srgb}},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}
}

func TestCheckSuitable(t *testing.T) {
	complete := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, presentOn(0))
	required := requiredExtensions(nil)

	assert.NoError(t, checkSuitable(complete, []string{vk.KhrSwapchainExtensionName}, required, adequate()))

	noPresent := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, presentOn())
	assert.Error(t, checkSuitable(noPresent, []string{vk.KhrSwapchainExtensionName}, required, adequate()))

	noGraphics := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueComputeBit, 1)}, presentOn(0))
	assert.Error(t, checkSuitable(noGraphics, []string{vk.KhrSwapchainExtensionName}, required, adequate()))

	err := checkSuitable(complete, nil, required, adequate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), vk.KhrSwapchainExtensionName)

	assert.Error(t, checkSuitable(complete, []string{vk.KhrSwapchainExtensionName}, required, surface.SupportDetails{}))
}

func TestRequiredExtensions(t *testing.T) {
	assert.Equal(t, []string{vk.KhrSwapchainExtensionName}, requiredExtensions([]string{"VK_KHR_swapchain\x00"}))
	assert.Equal(t, []string{vk.KhrSwapchainExtensionName, "VK_KHR_maintenance1"}, requiredExtensions([]string{"VK_KHR_maintenance1"}))
}

func TestMissingExtensions(t *testing.T) {
	assert.Empty(t, missingExtensions([]string{"a", "b"}, []string{"b"}))
	assert.Equal(t, []string{"c"}, missingExtensions([]string{"a", "b"}, []string{"b", "c"}))
}

func TestMaxSampleCount(t *testing.T) {
	assert.Equal(t, vk.SampleCount1Bit, maxSampleCount(0))
	assert.Equal(t, vk.SampleCount1Bit, maxSampleCount(vk.SampleCountFlags(vk.SampleCount1Bit)))
	assert.Equal(t, vk.SampleCount8Bit, maxSampleCount(vk.SampleCountFlags(vk.SampleCount1Bit|vk.SampleCount4Bit|vk.SampleCount8Bit)))
}

func TestFindMemoryType(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	types := []vk.MemoryPropertyFlags{deviceLocal, hostVisible, deviceLocal | hostVisible}

	idx, err := findMemoryType(types, 0b111, deviceLocal)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	idx, err = findMemoryType(types, 0b110, deviceLocal)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx, "type bits exclude index 0")

	idx, err = findMemoryType(types, 0b111, deviceLocal|hostVisible)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx, "properties must be a superset")

	_, err = findMemoryType(types, 0b001, hostVisible)
	assert.True(t, errors.Is(err, ErrNoSuitableMemory))
}

func TestPickFormat(t *testing.T) {
	depth := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	props := map[vk.Format]vk.FormatProperties{
		vk.FormatD32Sfloat:       {LinearTilingFeatures: depth},
		vk.FormatD32SfloatS8Uint: {OptimalTilingFeatures: depth},
	}
	query := func(f vk.Format) vk.FormatProperties { return props[f] }

	format, err := pickFormat(DepthFormats, vk.ImageTilingOptimal, depth, query)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, format)

	format, err = pickFormat(DepthFormats, vk.ImageTilingLinear, depth, query)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32Sfloat, format)

	_, err = pickFormat([]vk.Format{vk.FormatD24UnormS8Uint}, vk.ImageTilingOptimal, depth, query)
	assert.True(t, errors.Is(err, ErrNoSupportedFormat))
}

func TestReportLevel(t *testing.T) {
	assert.Equal(t, log.ErrorLevel, reportLevel(vk.DebugReportFlags(vk.DebugReportErrorBit|vk.DebugReportWarningBit)))
	assert.Equal(t, log.WarnLevel, reportLevel(vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)))
	assert.Equal(t, log.DebugLevel, reportLevel(vk.DebugReportFlags(vk.DebugReportDebugBit)))
	assert.Equal(t, log.InfoLevel, reportLevel(vk.DebugReportFlags(vk.DebugReportInformationBit)))
}

func TestFirstSuitableSkipsFailedQueries(t *testing.T) {
	complete := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, presentOn(0))
	var tried []int

	idx, families, err := firstSuitable(3, func(i int) (QueueFamilyIndices, error) {
		tried = append(tried, i)
		if i == 0 {
			return QueueFamilyIndices{}, errors.New("vk.GetPhysicalDeviceSurfaceSupport(): lost")
		}
		return complete, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, complete, families)
	assert.Equal(t, []int{0, 1}, tried)
}

func TestFirstSuitableNone(t *testing.T) {
	_, _, err := firstSuitable(2, func(i int) (QueueFamilyIndices, error) {
		return QueueFamilyIndices{}, errors.New("no graphics queue family")
	})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "device 0: no graphics queue family")
	assert.Contains(t, err.Error(), "device 1: no graphics queue family")

	_, _, err = firstSuitable(0, nil)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "no physical devices")
}

func TestBufferBoundsChecked(t *testing.T) {
	b := &Buffer{size: 4, memory: Memory{len: 4}}

	assert.ErrorIs(t, b.Write(make([]byte, 8)), ErrBufferOverflow)
	assert.ErrorIs(t, b.Read(make([]byte, 5)), ErrBufferOverflow)
	assert.Equal(t, uint64(4), b.memory.Len())
	assert.Zero(t, b.memory.Offset())
}
