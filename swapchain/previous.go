// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import vk "github.com/vulkan-go/vulkan"

// Previous tells New whether the swapchain replaces an older one.
// The zero value is Fresh.
type Previous struct {
	handle vk.Swapchain
	valid  bool
}

// Fresh is a swapchain with nothing to replace.
func Fresh() Previous {
	return Previous{}
}

// FromPrevious hands the old swapchain to the driver so it can reuse its
// resources. The old swapchain is still destroyed by its owner, after the
// new one is built.
func FromPrevious(handle vk.Swapchain) Previous {
	return Previous{handle: handle, valid: handle != vk.NullSwapchain}
}

// Handle returns the previous swapchain, if any.
func (p Previous) Handle() (vk.Swapchain, bool) {
	return p.handle, p.valid
}

func (p Previous) oldSwapchain() vk.Swapchain {
	if !p.valid {
		return vk.NullSwapchain
	}
	return p.handle
}
