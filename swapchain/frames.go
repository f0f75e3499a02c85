// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"errors"
	"fmt"

	"github.com/koru3d/vkframe/device"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight bounds the frames with outstanding GPU work.
const MaxFramesInFlight = 2

// syncer is the acquire/submit/present surface of the frame sync set,
// addressed by frame slot.
type syncer interface {
	Current() int
	Advance()
	WaitFrame(frame int) error
	ResetFrame(frame int) error
	Acquire(swapchain vk.Swapchain, frame int) (uint32, vk.Result)
	Submit(frame int, commandBuffer vk.CommandBuffer) error
	Present(swapchain vk.Swapchain, frame int, imageIndex uint32) vk.Result
}

// Frames holds one image-available semaphore, one render-finished semaphore
// and one in-flight fence per frame slot, plus the frame cursor. It lives as
// long as the device and is shared by every swapchain built on it.
type Frames struct {
	device        vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	imageAvailable [MaxFramesInFlight]vk.Semaphore
	renderFinished [MaxFramesInFlight]vk.Semaphore
	inFlight       [MaxFramesInFlight]vk.Fence

	current int
}

// NewFrames creates the sync objects. Fences start signaled so the first
// wait on each slot returns at once.
func NewFrames(dev *device.Device) (*Frames, error) {
	f := &Frames{
		device:        dev.Handle(),
		graphicsQueue: dev.GraphicsQueue(),
		presentQueue:  dev.PresentQueue(),
	}

	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		if err := vk.Error(vk.CreateSemaphore(f.device, &sci, nil, &f.imageAvailable[i])); err != nil {
			f.Destroy()
			return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		if err := vk.Error(vk.CreateSemaphore(f.device, &sci, nil, &f.renderFinished[i])); err != nil {
			f.Destroy()
			return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		if err := vk.Error(vk.CreateFence(f.device, &fci, nil, &f.inFlight[i])); err != nil {
			f.Destroy()
			return nil, errors.New("vk.CreateFence(): " + err.Error())
		}
	}
	return f, nil
}

// Current is the frame cursor, in [0, MaxFramesInFlight).
func (f *Frames) Current() int {
	return f.current
}

// Advance moves the cursor to the next slot.
func (f *Frames) Advance() {
	f.current = (f.current + 1) % MaxFramesInFlight
}

// WaitFrame blocks until the slot's last submission has completed.
func (f *Frames) WaitFrame(frame int) error {
	if err := vk.Error(vk.WaitForFences(f.device, 1, []vk.Fence{f.inFlight[frame]}, vk.True, vk.MaxUint64)); err != nil {
		return errors.New("vk.WaitForFences(): " + err.Error())
	}
	return nil
}

// ResetFrame unsignals the slot's fence before it is submitted with.
func (f *Frames) ResetFrame(frame int) error {
	if err := vk.Error(vk.ResetFences(f.device, 1, []vk.Fence{f.inFlight[frame]})); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}
	return nil
}

// Acquire asks for the next image, signaling the slot's image-available semaphore.
func (f *Frames) Acquire(swapchain vk.Swapchain, frame int) (uint32, vk.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(f.device, swapchain, vk.MaxUint64, f.imageAvailable[frame], vk.NullFence, &imageIndex)
	return imageIndex, result
}

// Submit submits the command buffer on the graphics queue. It waits for the
// image at the color output stage and signals render-finished and the fence.
func (f *Frames) Submit(frame int, commandBuffer vk.CommandBuffer) error {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.imageAvailable[frame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.renderFinished[frame]},
	}}

	if err := vk.Error(vk.QueueSubmit(f.graphicsQueue, 1, submit, f.inFlight[frame])); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}
	return nil
}

// Present queues the image for presentation once rendering has finished.
func (f *Frames) Present(swapchain vk.Swapchain, frame int, imageIndex uint32) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.renderFinished[frame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(f.presentQueue, &presentInfo)
}

// Destroy releases the sync objects. Only call it at device teardown,
// after the device is idle.
func (f *Frames) Destroy() {
	if f == nil {
		return
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		if f.imageAvailable[i] != vk.NullSemaphore {
			vk.DestroySemaphore(f.device, f.imageAvailable[i], nil)
			f.imageAvailable[i] = vk.NullSemaphore
		}
		if f.renderFinished[i] != vk.NullSemaphore {
			vk.DestroySemaphore(f.device, f.renderFinished[i], nil)
			f.renderFinished[i] = vk.NullSemaphore
		}
		if f.inFlight[i] != vk.NullFence {
			vk.DestroyFence(f.device, f.inFlight[i], nil)
			f.inFlight[i] = vk.NullFence
		}
	}
}
