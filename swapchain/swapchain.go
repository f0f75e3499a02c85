// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package swapchain owns every resource whose size or format follows the
// presentation surface, and paces frames between the CPU and the GPU.
package swapchain

import (
	"errors"
	"fmt"

	"github.com/koru3d/vkframe/device"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// noFrame marks an image no frame slot has claimed yet.
const noFrame = -1

// Options tune swapchain creation.
type Options struct {
	// VSync forces FIFO presentation.
	VSync bool

	// Multisample renders into multisampled color images resolved
	// into the swapchain image.
	Multisample bool
}

// Formats are the attachment formats a render pass is compiled against.
type Formats struct {
	Color vk.Format
	Depth vk.Format
}

// Swapchain is the swapchain with its images, attachments, render pass and
// framebuffers. It is rebuilt, never resized.
type Swapchain struct {
	device *device.Device
	sync   syncer
	log    log.FieldLogger

	handle      vk.Swapchain
	formats     Formats
	colorSpace  vk.ColorSpace
	presentMode vk.PresentMode
	extent      vk.Extent2D
	samples     vk.SampleCountFlagBits

	images       []vk.Image
	views        []vk.ImageView
	depth        []*device.Image
	color        []*device.Image
	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer

	// imagesInFlight holds, per image, the frame slot whose submission
	// last used it.
	imagesInFlight []int
}

// New builds a swapchain for extent. Passing FromPrevious lets the driver
// hand over the old swapchain's resources; the caller destroys the old one
// after New returns.
func New(dev *device.Device, frames *Frames, extent vk.Extent2D, previous Previous, opts Options, logger log.FieldLogger) (*Swapchain, error) {
	s := &Swapchain{
		device:  dev,
		sync:    frames,
		log:     logger,
		samples: vk.SampleCount1Bit,
	}
	if opts.Multisample {
		s.samples = dev.MaxSampleCount()
	}

	if err := s.createSwapchain(extent, previous, opts); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createImageViews(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createDepthResources(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createColorResources(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createRenderPass(); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.createFramebuffers(); err != nil {
		s.Destroy()
		return nil, err
	}
	s.resetImagesInFlight()

	logger.WithFields(log.Fields{
		"images":  len(s.images),
		"width":   s.extent.Width,
		"height":  s.extent.Height,
		"mode":    s.presentMode,
		"samples": s.samples,
	}).Debug("swapchain created")
	return s, nil
}

func (s *Swapchain) createSwapchain(requested vk.Extent2D, previous Previous, opts Options) error {
	support, err := s.device.SurfaceSupport()
	if err != nil {
		return err
	}
	caps := support.Capabilities

	surfaceFormat, err := chooseSurfaceFormat(support.Formats)
	if err != nil {
		return err
	}
	s.formats.Color = surfaceFormat.Format
	s.colorSpace = surfaceFormat.ColorSpace
	s.presentMode = choosePresentMode(support.PresentModes, opts.VSync)
	s.extent = chooseExtent(requested, caps)

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.device.Surface().Handle(),
		MinImageCount:    chooseImageCount(caps),
		ImageFormat:      s.formats.Color,
		ImageColorSpace:  s.colorSpace,
		ImageExtent:      s.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:      s.presentMode,
		Clipped:          vk.True,
		OldSwapchain:     previous.oldSwapchain(),
	}
	if families := s.device.Families(); !families.Shared() {
		indices := families.Unique()
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = uint32(len(indices))
		scci.PQueueFamilyIndices = indices
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(s.device.Handle(), &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	s.handle = swapchain

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(s.device.Handle(), s.handle, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	s.images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(s.device.Handle(), s.handle, &numImages, s.images)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}
	return nil
}

func (s *Swapchain) createImageViews() error {
	for idx, image := range s.images {
		view, err := device.CreateImageView(s.device.Handle(), image, s.formats.Color,
			vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return fmt.Errorf("image %d: %w", idx, err)
		}
		s.views = append(s.views, view)
	}
	return nil
}

func (s *Swapchain) createDepthResources() error {
	format, err := s.device.FindDepthFormat()
	if err != nil {
		return err
	}
	s.formats.Depth = format

	for range s.images {
		img, err := s.device.NewImage(device.ImageConfiguration{
			Extent:  s.extent,
			Format:  format,
			Usage:   vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			Samples: s.samples,
			Aspect:  vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		})
		if err != nil {
			return err
		}
		s.depth = append(s.depth, img)
	}
	return nil
}

func (s *Swapchain) createColorResources() error {
	if !s.multisampled() {
		return nil
	}
	for range s.images {
		img, err := s.device.NewImage(device.ImageConfiguration{
			Extent: s.extent,
			Format: s.formats.Color,
			Usage: vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit |
				vk.ImageUsageColorAttachmentBit),
			Samples: s.samples,
			Aspect:  vk.ImageAspectFlags(vk.ImageAspectColorBit),
		})
		if err != nil {
			return err
		}
		s.color = append(s.color, img)
	}
	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for idx, view := range s.views {
		attachments := []vk.ImageView{view, s.depth[idx].View()}
		if s.multisampled() {
			attachments = []vk.ImageView{s.color[idx].View(), s.depth[idx].View(), view}
		}

		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      s.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(s.device.Handle(), &fci, nil, &framebuffer)); err != nil {
			return errors.New("vk.CreateFramebuffer(): " + err.Error())
		}
		s.framebuffers = append(s.framebuffers, framebuffer)
	}
	return nil
}

func (s *Swapchain) multisampled() bool {
	return s.samples != vk.SampleCount1Bit
}

func (s *Swapchain) resetImagesInFlight() {
	s.imagesInFlight = make([]int, len(s.images))
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = noFrame
	}
}

// Handle returns the native swapchain.
func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

// Formats returns the color and depth formats.
func (s *Swapchain) Formats() Formats {
	return s.formats
}

// CompareFormats reports whether other has the same color and depth formats.
func (s *Swapchain) CompareFormats(other Formats) bool {
	return s.formats == other
}

// ImageCount is the number of images the driver created.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Extent is the swapchain image extent.
func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// ExtentAspectRatio is width over height.
func (s *Swapchain) ExtentAspectRatio() float32 {
	if s.extent.Height == 0 {
		return 0
	}
	return float32(s.extent.Width) / float32(s.extent.Height)
}

// RenderPass is the render pass compatible with every framebuffer.
func (s *Swapchain) RenderPass() vk.RenderPass {
	return s.renderPass
}

// Framebuffer returns the framebuffer for an image.
func (s *Swapchain) Framebuffer(imageIndex uint32) vk.Framebuffer {
	return s.framebuffers[imageIndex]
}

// Samples is the sample count of the color and depth attachments.
func (s *Swapchain) Samples() vk.SampleCountFlagBits {
	return s.samples
}

// FrameIndex is the current frame slot.
func (s *Swapchain) FrameIndex() int {
	return s.sync.Current()
}

// Destroy releases, in order, the image views, the swapchain, the depth and
// color attachments, the framebuffers and the render pass. The shared Frames
// are left alone. Safe on a partially built swapchain.
func (s *Swapchain) Destroy() {
	if s == nil || s.device == nil {
		return
	}
	dev := s.device.Handle()

	for _, view := range s.views {
		vk.DestroyImageView(dev, view, nil)
	}
	s.views = nil

	if s.handle != vk.NullSwapchain {
		vk.DestroySwapchain(dev, s.handle, nil)
		s.handle = vk.NullSwapchain
	}
	s.images = nil

	for _, img := range s.depth {
		img.Destroy()
	}
	s.depth = nil
	for _, img := range s.color {
		img.Destroy()
	}
	s.color = nil

	for _, framebuffer := range s.framebuffers {
		vk.DestroyFramebuffer(dev, framebuffer, nil)
	}
	s.framebuffers = nil

	if s.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev, s.renderPass, nil)
		s.renderPass = vk.NullRenderPass
	}
	s.imagesInFlight = nil
}
