// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// ImageConfiguration describes a device local 2D attachment image.
type ImageConfiguration struct {
	Extent  vk.Extent2D
	Format  vk.Format
	Usage   vk.ImageUsageFlags
	Samples vk.SampleCountFlagBits
	Aspect  vk.ImageAspectFlags
}

// Image is an image with its own memory and a view over it.
type Image struct {
	device vk.Device
	format vk.Format
	image  vk.Image
	view   vk.ImageView
	memory Memory
}

// NewImage creates the image, binds device local memory and creates a view.
func (d *Device) NewImage(cfg ImageConfiguration) (*Image, error) {
	samples := cfg.Samples
	if samples == 0 {
		samples = vk.SampleCount1Bit
	}

	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    cfg.Format,
		Extent: vk.Extent3D{
			Width:  cfg.Extent.Width,
			Height: cfg.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         cfg.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	img := &Image{
		device: d.handle,
		format: cfg.Format,
	}
	if err := vk.Error(vk.CreateImage(d.handle, &ici, nil, &img.image)); err != nil {
		return nil, errors.New("vk.CreateImage(): " + err.Error())
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.handle, img.image, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := d.memory.Malloc(memoryRequirements, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		img.Destroy()
		return nil, err
	}
	img.memory = memory

	if err := vk.Error(vk.BindImageMemory(d.handle, img.image, memory.Get(), 0)); err != nil {
		img.Destroy()
		return nil, errors.New("vk.BindImageMemory(): " + err.Error())
	}

	view, err := CreateImageView(d.handle, img.image, cfg.Format, cfg.Aspect)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	img.view = view

	return img, nil
}

// Handle returns the image.
func (i *Image) Handle() vk.Image {
	return i.image
}

// View returns the image view.
func (i *Image) View() vk.ImageView {
	return i.view
}

// Format returns the image format.
func (i *Image) Format() vk.Format {
	return i.format
}

// Destroy releases the view, the image and then its memory.
func (i *Image) Destroy() {
	if i == nil {
		return
	}
	if i.view != vk.NullImageView {
		vk.DestroyImageView(i.device, i.view, nil)
		i.view = vk.NullImageView
	}
	if i.image != vk.NullImage {
		vk.DestroyImage(i.device, i.image, nil)
		i.image = vk.NullImage
	}
	i.memory.Release()
}

// CreateImageView creates a 2D view over a single mip level and layer.
func CreateImageView(device vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(device, &ivci, nil, &view)); err != nil {
		return vk.NullImageView, errors.New("vk.CreateImageView(): " + err.Error())
	}
	return view, nil
}
