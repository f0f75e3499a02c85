// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormatPrefersSrgb(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR16g16b16a16Sfloat, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	f, err := chooseSurfaceFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, f.Format)

	formats[2].Format = vk.FormatR8g8b8a8Srgb
	f, err = chooseSurfaceFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, f.Format)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	f, err := chooseSurfaceFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)

	_, err = chooseSurfaceFormat(nil)
	assert.ErrorIs(t, err, ErrNoSurfaceFormat)
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode(all, false))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(all, true))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, false))
}

func capabilities(current, min, max vk.Extent2D) vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		CurrentExtent:  current,
		MinImageExtent: min,
		MaxImageExtent: max,
	}
}

func TestChooseExtentFixed(t *testing.T) {
	caps := capabilities(vk.Extent2D{Width: 1024, Height: 768}, vk.Extent2D{Width: 1, Height: 1}, vk.Extent2D{Width: 4096, Height: 4096})
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, chooseExtent(vk.Extent2D{Width: 800, Height: 600}, caps))
}

func TestChooseExtentVariable(t *testing.T) {
	caps := capabilities(vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		vk.Extent2D{Width: 100, Height: 100}, vk.Extent2D{Width: 2000, Height: 1000})

	cases := []struct {
		requested, want vk.Extent2D
	}{
		{vk.Extent2D{Width: 800, Height: 600}, vk.Extent2D{Width: 800, Height: 600}},
		{vk.Extent2D{Width: 50, Height: 600}, vk.Extent2D{Width: 100, Height: 600}},
		{vk.Extent2D{Width: 800, Height: 5000}, vk.Extent2D{Width: 800, Height: 1000}},
		{vk.Extent2D{Width: 100, Height: 1000}, vk.Extent2D{Width: 100, Height: 1000}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, chooseExtent(c.requested, caps), "requested %v", c.requested)
	}
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}))
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(2), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestChooseCompositeAlpha(t *testing.T) {
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, chooseCompositeAlpha(vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit|vk.CompositeAlphaInheritBit)))
	assert.Equal(t, vk.CompositeAlphaInheritBit, chooseCompositeAlpha(vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit)))
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, chooseCompositeAlpha(0))
}

func TestPrevious(t *testing.T) {
	_, ok := Fresh().Handle()
	assert.False(t, ok)
	assert.Equal(t, vk.NullSwapchain, Fresh().oldSwapchain())

	_, ok = FromPrevious(vk.NullSwapchain).Handle()
	assert.False(t, ok, "a null handle is not a previous swapchain")
}

func TestRenderPassInfo(t *testing.T) {
	formats := Formats{Color: vk.FormatB8g8r8a8Srgb, Depth: vk.FormatD32Sfloat}

	single := renderPassInfo(formats, vk.SampleCount1Bit)
	require.Len(t, single.PAttachments, 2)
	assert.Equal(t, vk.ImageLayoutPresentSrc, single.PAttachments[0].FinalLayout)
	assert.Equal(t, vk.FormatD32Sfloat, single.PAttachments[1].Format)
	assert.Empty(t, single.PSubpasses[0].PResolveAttachments)

	msaa := renderPassInfo(formats, vk.SampleCount4Bit)
	require.Len(t, msaa.PAttachments, 3)
	assert.Equal(t, vk.SampleCount4Bit, msaa.PAttachments[0].Samples)
	assert.Equal(t, vk.SampleCount1Bit, msaa.PAttachments[2].Samples)
	assert.Equal(t, vk.ImageLayoutPresentSrc, msaa.PAttachments[2].FinalLayout)
	require.Len(t, msaa.PSubpasses[0].PResolveAttachments, 1)
	assert.Equal(t, uint32(2), msaa.PSubpasses[0].PResolveAttachments[0].Attachment)
}
