// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// AllocateCommandBuffers allocates primary command buffers from the pool.
func (d *Device) AllocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.handle, &cbai, commandBuffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	return commandBuffers, nil
}

// FreeCommandBuffers returns command buffers to the pool.
func (d *Device) FreeCommandBuffers(commandBuffers []vk.CommandBuffer) {
	if len(commandBuffers) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.handle, d.commandPool, uint32(len(commandBuffers)), commandBuffers)
}

// BeginCommandBuffer starts recording, implicitly resetting the buffer.
func (d *Device) BeginCommandBuffer(commandBuffer vk.CommandBuffer) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}
	return nil
}

// EndCommandBuffer finishes recording.
func (d *Device) EndCommandBuffer(commandBuffer vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}
	return nil
}

// BeginSingleTimeCommands allocates a one time submit command buffer and
// starts recording it. Finish it with EndSingleTimeCommands.
func (d *Device) BeginSingleTimeCommands() (vk.CommandBuffer, error) {
	commandBuffers, err := d.AllocateCommandBuffers(1)
	if err != nil {
		return nil, err
	}
	commandBuffer := commandBuffers[0]

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		d.FreeCommandBuffers(commandBuffers)
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}

	return commandBuffer, nil
}

// EndSingleTimeCommands submits the buffer to the graphics queue, waits for
// the queue to go idle and frees the buffer. Not for the per-frame path.
// If the wait fails the buffer may still be pending and is left to the pool.
func (d *Device) EndSingleTimeCommands(commandBuffer vk.CommandBuffer) error {
	commandBuffers := []vk.CommandBuffer{commandBuffer}

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		d.FreeCommandBuffers(commandBuffers)
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	if err := vk.Error(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{si}, vk.NullFence)); err != nil {
		d.FreeCommandBuffers(commandBuffers)
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}

	if err := vk.Error(vk.QueueWaitIdle(d.graphicsQueue)); err != nil {
		return fmt.Errorf("vk.QueueWaitIdle(): %s", err.Error())
	}
	d.FreeCommandBuffers(commandBuffers)
	return nil
}

// CopyBuffer copies size bytes from src to dst and waits for completion.
func (d *Device) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	cmd, err := d.BeginSingleTimeCommands()
	if err != nil {
		return err
	}

	bc := vk.BufferCopy{
		Size: size,
	}
	vk.CmdCopyBuffer(cmd, src, dst, 1, []vk.BufferCopy{bc})

	return d.EndSingleTimeCommands(cmd)
}
