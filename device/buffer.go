// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// HostVisible is the memory class that can be mapped without flushes.
const HostVisible = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

// Buffer is a buffer with its own bound memory.
type Buffer struct {
	device vk.Device
	handle vk.Buffer
	size   uint64
	memory Memory
}

// NewBuffer creates a buffer of size bytes and binds fresh memory with
// the given properties to it.
func (d *Device) NewBuffer(size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if err := vk.Error(vk.CreateBuffer(d.handle, &createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.handle, handle, &req)
	req.Deref()

	memory, err := d.memory.Malloc(req, props)
	if err != nil {
		vk.DestroyBuffer(d.handle, handle, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindBufferMemory(d.handle, handle, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Release()
		vk.DestroyBuffer(d.handle, handle, nil)
		return nil, fmt.Errorf("vk.BindBufferMemory(): %s", err.Error())
	}

	return &Buffer{
		device: d.handle,
		handle: handle,
		size:   size,
		memory: memory,
	}, nil
}

// UploadBuffer copies data into a new device local buffer through a host
// visible staging buffer. usage gets TRANSFER_DST added.
func (d *Device) UploadBuffer(data []byte, usage vk.BufferUsageFlags) (*Buffer, error) {
	size := uint64(len(data))
	staging, err := d.NewBuffer(size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), HostVisible)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.Write(data); err != nil {
		return nil, err
	}

	dst, err := d.NewBuffer(size, usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := d.CopyBuffer(staging.Handle(), dst.Handle(), vk.DeviceSize(size)); err != nil {
		dst.Destroy()
		return nil, err
	}
	return dst, nil
}

// Handle returns the vulkan buffer handle.
func (b *Buffer) Handle() vk.Buffer {
	return b.handle
}

// Size is the requested size in bytes.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Write copies data to the start of host visible memory.
func (b *Buffer) Write(data []byte) error {
	if uint64(len(data)) > b.memory.Len() {
		return fmt.Errorf("%w: %d bytes into %d", ErrBufferOverflow, len(data), b.memory.Len())
	}
	ptr, err := b.memory.Map()
	if err != nil {
		return err
	}
	defer b.memory.Unmap()
	copy(unsafe.Slice((*byte)(ptr), len(data)), data)
	return nil
}

// Read copies len(out) bytes from the start of host visible memory.
func (b *Buffer) Read(out []byte) error {
	if uint64(len(out)) > b.memory.Len() {
		return fmt.Errorf("%w: %d bytes from %d", ErrBufferOverflow, len(out), b.memory.Len())
	}
	ptr, err := b.memory.Map()
	if err != nil {
		return err
	}
	defer b.memory.Unmap()
	copy(out, unsafe.Slice((*byte)(ptr), len(out)))
	return nil
}

// Destroy releases the buffer and then its memory.
func (b *Buffer) Destroy() {
	if b == nil || b.handle == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.device, b.handle, nil)
	b.handle = vk.NullBuffer
	b.memory.Release()
}
