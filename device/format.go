// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// DepthFormats are the depth formats tried, in order.
var DepthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindSupportedFormat returns the first candidate whose features for the
// given tiling include all of features.
func (d *Device) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return pickFormat(candidates, tiling, features, func(format vk.Format) vk.FormatProperties {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.physical, format, &props)
		props.Deref()
		return props
	})
}

// FindDepthFormat picks a depth attachment format.
func (d *Device) FindDepthFormat() (vk.Format, error) {
	return d.FindSupportedFormat(DepthFormats, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

func pickFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags, query func(vk.Format) vk.FormatProperties) (vk.Format, error) {
	for _, format := range candidates {
		props := query(format)
		var supported vk.FormatFeatureFlags
		switch tiling {
		case vk.ImageTilingLinear:
			supported = props.LinearTilingFeatures
		case vk.ImageTilingOptimal:
			supported = props.OptimalTilingFeatures
		default:
			continue
		}
		if supported&features == features {
			return format, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("%w: %d candidates, features %#x", ErrNoSupportedFormat, len(candidates), uint32(features))
}

// Align rounds size up to a multiple of alignment. Zero alignment
// leaves size as is.
func Align(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}
