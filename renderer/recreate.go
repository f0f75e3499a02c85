// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"

	"github.com/koru3d/vkframe/swapchain"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// recreate rebuilds the swapchain for the window's current extent. It is
// the single recovery path for out of date, suboptimal and resized surfaces.
func (r *Renderer) recreate() error {
	extent := r.waitForExtent()

	// Old framebuffers may still be referenced by in-flight work.
	if err := r.device.WaitIdle(); err != nil {
		return err
	}

	next, err := r.newChain(extent, swapchain.FromPrevious(r.chain.Handle()))
	if err != nil {
		return err
	}
	if !r.chain.CompareFormats(next.Formats()) {
		old, changed := r.chain.Formats(), next.Formats()
		next.Destroy()
		return fmt.Errorf("%w: color %d -> %d, depth %d -> %d", ErrFormatChanged,
			old.Color, changed.Color, old.Depth, changed.Depth)
	}

	previousCount := r.chain.ImageCount()
	r.chain.Destroy()
	r.chain = next
	// Any pending resize is covered by the new chain.
	r.window.ResetResized()

	if next.ImageCount() != previousCount {
		commandBuffers, err := r.device.AllocateCommandBuffers(swapchain.MaxFramesInFlight)
		if err != nil {
			return err
		}
		r.device.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = commandBuffers
	}

	r.log.WithFields(log.Fields{
		"width":  extent.Width,
		"height": extent.Height,
		"images": next.ImageCount(),
	}).Info("swapchain recreated")
	return nil
}

// waitForExtent blocks on window events while the window has no area,
// for instance while minimized.
func (r *Renderer) waitForExtent() vk.Extent2D {
	width, height := r.window.Extent()
	for width == 0 || height == 0 {
		r.window.WaitEvents()
		width, height = r.window.Extent()
	}
	return vk.Extent2D{Width: width, Height: height}
}
