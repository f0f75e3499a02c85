// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer drives the begin-frame/end-frame protocol and rebuilds
// the swapchain when the surface changes.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/koru3d/vkframe/core"
	"github.com/koru3d/vkframe/swapchain"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Errors returned by the renderer, match with errors.Is.
var (
	ErrDoubleBeginFrame     = errors.New("begin frame called while a frame is in progress")
	ErrEndFrameWithoutBegin = errors.New("end frame called without a frame in progress")
	ErrNoFrame              = errors.New("no frame in progress")
	ErrForeignCommandBuffer = errors.New("command buffer does not belong to the current frame")
	ErrFormatChanged        = errors.New("swapchain formats changed on recreation")
)

// Window is what the renderer needs from the window.
type Window interface {
	// Extent is the current drawable size in pixels.
	Extent() (width, height uint32)
	WasResized() bool
	ResetResized()
	// WaitEvents blocks until the window receives an event.
	WaitEvents()
}

// Device is what the renderer needs from the graphics device.
type Device interface {
	WaitIdle() error
	AllocateCommandBuffers(count int) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(commandBuffers []vk.CommandBuffer)
	BeginCommandBuffer(commandBuffer vk.CommandBuffer) error
	EndCommandBuffer(commandBuffer vk.CommandBuffer) error
}

// Chain is a swapchain as used by the renderer.
type Chain interface {
	Handle() vk.Swapchain
	Formats() swapchain.Formats
	CompareFormats(other swapchain.Formats) bool
	ImageCount() int
	Extent() vk.Extent2D
	ExtentAspectRatio() float32
	RenderPass() vk.RenderPass
	FrameIndex() int
	AcquireNextImage() (imageIndex uint32, needsRecreate bool, err error)
	SubmitAndPresent(commandBuffer vk.CommandBuffer, imageIndex uint32) (needsRecreate bool, err error)
	BeginRenderPass(commandBuffer vk.CommandBuffer, imageIndex uint32, clear mgl32.Vec4)
	EndRenderPass(commandBuffer vk.CommandBuffer)
	Destroy()
}

// Factory builds a swapchain for the extent.
type Factory func(extent vk.Extent2D, previous swapchain.Previous) (Chain, error)

// State of the frame protocol.
type State int

// Frame states
const (
	Idle State = iota
	FrameInProgress
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameInProgress:
		return "frame in progress"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Renderer is the frame scheduler. It is driven from one thread.
type Renderer struct {
	window   Window
	device   Device
	frames   core.Destroyable
	newChain Factory
	log      log.FieldLogger

	chain          Chain
	commandBuffers []vk.CommandBuffer

	state      State
	frameIndex int
	imageIndex uint32
}

// New builds the first swapchain, waiting for the window to have an area,
// and allocates one command buffer per frame slot. frames are the sync
// objects shared by every swapchain; the renderer destroys them last.
func New(window Window, dev Device, frames core.Destroyable, newChain Factory, logger log.FieldLogger) (*Renderer, error) {
	r := &Renderer{
		window:   window,
		device:   dev,
		frames:   frames,
		newChain: newChain,
		log:      logger,
	}

	chain, err := newChain(r.waitForExtent(), swapchain.Fresh())
	if err != nil {
		return nil, err
	}
	r.chain = chain

	if err := r.allocateCommandBuffers(); err != nil {
		chain.Destroy()
		return nil, err
	}
	return r, nil
}

// BeginFrame acquires an image and starts recording this frame's command
// buffer. When the swapchain had to be rebuilt it returns ok false: skip
// this tick.
func (r *Renderer) BeginFrame() (commandBuffer vk.CommandBuffer, ok bool, err error) {
	if r.state != Idle {
		return nil, false, ErrDoubleBeginFrame
	}

	imageIndex, needsRecreate, err := r.chain.AcquireNextImage()
	if err != nil {
		return nil, false, err
	}
	if needsRecreate {
		return nil, false, r.recreate()
	}

	r.imageIndex = imageIndex
	r.frameIndex = r.chain.FrameIndex()
	commandBuffer = r.commandBuffers[r.frameIndex]
	if err := r.device.BeginCommandBuffer(commandBuffer); err != nil {
		return nil, false, err
	}

	r.state = FrameInProgress
	return commandBuffer, true, nil
}

// EndFrame finishes recording, submits and presents. The renderer is idle
// afterwards whatever the outcome.
func (r *Renderer) EndFrame() error {
	if r.state != FrameInProgress {
		return ErrEndFrameWithoutBegin
	}
	defer func() { r.state = Idle }()

	commandBuffer := r.commandBuffers[r.frameIndex]
	if err := r.device.EndCommandBuffer(commandBuffer); err != nil {
		return err
	}

	needsRecreate, err := r.chain.SubmitAndPresent(commandBuffer, r.imageIndex)
	if err != nil {
		return err
	}
	if needsRecreate || r.window.WasResized() {
		return r.recreate()
	}
	return nil
}

// BeginSwapchainRenderPass begins the swapchain render pass on the current
// frame's command buffer, clearing to clear.
func (r *Renderer) BeginSwapchainRenderPass(commandBuffer vk.CommandBuffer, clear mgl32.Vec4) error {
	if err := r.checkCommandBuffer(commandBuffer); err != nil {
		return err
	}
	r.chain.BeginRenderPass(commandBuffer, r.imageIndex, clear)
	return nil
}

// EndSwapchainRenderPass ends the swapchain render pass.
func (r *Renderer) EndSwapchainRenderPass(commandBuffer vk.CommandBuffer) error {
	if err := r.checkCommandBuffer(commandBuffer); err != nil {
		return err
	}
	r.chain.EndRenderPass(commandBuffer)
	return nil
}

func (r *Renderer) checkCommandBuffer(commandBuffer vk.CommandBuffer) error {
	if r.state != FrameInProgress {
		return ErrNoFrame
	}
	if commandBuffer != r.commandBuffers[r.frameIndex] {
		return ErrForeignCommandBuffer
	}
	return nil
}

// State returns the protocol state.
func (r *Renderer) State() State {
	return r.state
}

// IsFrameInProgress reports if BeginFrame succeeded and EndFrame is pending.
func (r *Renderer) IsFrameInProgress() bool {
	return r.state == FrameInProgress
}

// FrameIndex is the frame slot, in [0, MaxFramesInFlight), for indexing
// per-frame resources.
func (r *Renderer) FrameIndex() int {
	if r.state == FrameInProgress {
		return r.frameIndex
	}
	return r.chain.FrameIndex()
}

// CurrentCommandBuffer returns the command buffer being recorded.
func (r *Renderer) CurrentCommandBuffer() (vk.CommandBuffer, error) {
	if r.state != FrameInProgress {
		return nil, ErrNoFrame
	}
	return r.commandBuffers[r.frameIndex], nil
}

// CurrentImageIndex returns the acquired swapchain image.
func (r *Renderer) CurrentImageIndex() (uint32, error) {
	if r.state != FrameInProgress {
		return 0, ErrNoFrame
	}
	return r.imageIndex, nil
}

// RenderPass is the swapchain render pass, for pipeline creation.
func (r *Renderer) RenderPass() vk.RenderPass {
	return r.chain.RenderPass()
}

// Extent is the swapchain extent.
func (r *Renderer) Extent() vk.Extent2D {
	return r.chain.Extent()
}

// AspectRatio is the swapchain width over height.
func (r *Renderer) AspectRatio() float32 {
	return r.chain.ExtentAspectRatio()
}

// ImageCount is the current swapchain image count.
func (r *Renderer) ImageCount() int {
	return r.chain.ImageCount()
}

// Destroy waits for the device, frees the command buffers, destroys the
// swapchain and then the shared frame sync objects.
func (r *Renderer) Destroy() {
	if r == nil {
		return
	}
	if err := r.device.WaitIdle(); err != nil {
		r.log.WithError(err).Warn("device did not go idle before teardown")
	}
	r.device.FreeCommandBuffers(r.commandBuffers)
	r.commandBuffers = nil
	if r.chain != nil {
		r.chain.Destroy()
		r.chain = nil
	}
	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
}

func (r *Renderer) allocateCommandBuffers() error {
	commandBuffers, err := r.device.AllocateCommandBuffers(swapchain.MaxFramesInFlight)
	if err != nil {
		return err
	}
	r.commandBuffers = commandBuffers
	return nil
}
