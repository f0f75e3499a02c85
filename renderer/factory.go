// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/koru3d/vkframe/device"
	"github.com/koru3d/vkframe/swapchain"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

var (
	_ Chain  = (*swapchain.Swapchain)(nil)
	_ Device = (*device.Device)(nil)
)

// SwapchainFactory builds swapchains on dev sharing frames.
func SwapchainFactory(dev *device.Device, frames *swapchain.Frames, opts swapchain.Options, logger log.FieldLogger) Factory {
	return func(extent vk.Extent2D, previous swapchain.Previous) (Chain, error) {
		sc, err := swapchain.New(dev, frames, extent, previous, opts, logger)
		if err != nil {
			return nil, err
		}
		return sc, nil
	}
}

// NewVulkan wires a renderer to a real device: it creates the shared frame
// sync objects and the swapchain factory.
func NewVulkan(window Window, dev *device.Device, opts swapchain.Options, logger log.FieldLogger) (*Renderer, error) {
	frames, err := swapchain.NewFrames(dev)
	if err != nil {
		return nil, err
	}
	r, err := New(window, dev, frames, SwapchainFactory(dev, frames, opts, logger), logger)
	if err != nil {
		frames.Destroy()
		return nil, err
	}
	return r, nil
}
