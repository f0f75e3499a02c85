// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// fakeSync records calls and hands out images in order.
type fakeSync struct {
	current int

	images []uint32
	next   int

	acquireResults []vk.Result
	presentResults []vk.Result
	submitErr      error

	waits    []int
	resets   []int
	submits  []int
	presents []uint32
}

func (f *fakeSync) Current() int { return f.current }

func (f *fakeSync) Advance() { f.current = (f.current + 1) % MaxFramesInFlight }

func (f *fakeSync) WaitFrame(frame int) error {
	f.waits = append(f.waits, frame)
	return nil
}

func (f *fakeSync) ResetFrame(frame int) error {
	f.resets = append(f.resets, frame)
	return nil
}

func (f *fakeSync) Acquire(vk.Swapchain, int) (uint32, vk.Result) {
	result := vk.Success
	if len(f.acquireResults) > 0 {
		result, f.acquireResults = f.acquireResults[0], f.acquireResults[1:]
	}
	if result != vk.Success && result != vk.Suboptimal {
		return 0, result
	}
	image := f.images[f.next%len(f.images)]
	f.next++
	return image, result
}

func (f *fakeSync) Submit(frame int, _ vk.CommandBuffer) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits = append(f.submits, frame)
	return nil
}

func (f *fakeSync) Present(_ vk.Swapchain, _ int, imageIndex uint32) vk.Result {
	f.presents = append(f.presents, imageIndex)
	if len(f.presentResults) > 0 {
		result := f.presentResults[0]
		f.presentResults = f.presentResults[1:]
		return result
	}
	return vk.Success
}

func newTestSwapchain(imageCount int, sync syncer) *Swapchain {
	logger, _ := test.NewNullLogger()
	s := &Swapchain{
		sync:    sync,
		log:     logger,
		images:  make([]vk.Image, imageCount),
		formats: Formats{Color: vk.FormatB8g8r8a8Srgb, Depth: vk.FormatD32Sfloat},
	}
	s.resetImagesInFlight()
	return s
}

func frame(t *testing.T, s *Swapchain) bool {
	idx, recreate, err := s.AcquireNextImage()
	require.NoError(t, err)
	require.False(t, recreate)
	require.Less(t, int(idx), s.ImageCount())

	recreate, err = s.SubmitAndPresent(nil, idx)
	require.NoError(t, err)
	return recreate
}

func TestFrameCursorCycles(t *testing.T) {
	for n := 0; n <= 7; n++ {
		sync := &fakeSync{images: []uint32{0, 1, 2}}
		s := newTestSwapchain(3, sync)
		for i := 0; i < n; i++ {
			assert.False(t, frame(t, s))
		}
		assert.Equal(t, n%MaxFramesInFlight, s.FrameIndex(), "after %d frames", n)
	}
}

func TestLoopMoreFramesThanSlots(t *testing.T) {
	sync := &fakeSync{images: []uint32{0, 1}}
	s := newTestSwapchain(2, sync)

	for i := 0; i < MaxFramesInFlight+1; i++ {
		assert.False(t, frame(t, s))
	}
	assert.Equal(t, []int{0, 1, 0}, sync.submits)
	assert.Equal(t, []uint32{0, 1, 0}, sync.presents)
	assert.Equal(t, 1, s.FrameIndex())
}

func TestAcquireOutOfDate(t *testing.T) {
	sync := &fakeSync{images: []uint32{0}, acquireResults: []vk.Result{vk.ErrorOutOfDate}}
	s := newTestSwapchain(1, sync)

	idx, recreate, err := s.AcquireNextImage()
	require.NoError(t, err)
	assert.True(t, recreate)
	assert.Zero(t, idx)
	assert.Empty(t, sync.submits)
	assert.Equal(t, 0, s.FrameIndex())
}

func TestAcquireSuboptimalStillRenders(t *testing.T) {
	sync := &fakeSync{images: []uint32{1}, acquireResults: []vk.Result{vk.Suboptimal}}
	s := newTestSwapchain(2, sync)

	idx, recreate, err := s.AcquireNextImage()
	require.NoError(t, err)
	assert.False(t, recreate)
	assert.Equal(t, uint32(1), idx)
}

func TestAcquireFailure(t *testing.T) {
	sync := &fakeSync{images: []uint32{0}, acquireResults: []vk.Result{vk.ErrorDeviceLost}}
	s := newTestSwapchain(1, sync)

	_, _, err := s.AcquireNextImage()
	assert.ErrorIs(t, err, ErrAcquireFailed)
}

func TestAcquireRejectsIndexOutOfRange(t *testing.T) {
	sync := &fakeSync{images: []uint32{5}}
	s := newTestSwapchain(3, sync)

	_, _, err := s.AcquireNextImage()
	assert.ErrorIs(t, err, ErrImageIndex)
}

func TestAcquireWaitsOnCurrentFrame(t *testing.T) {
	sync := &fakeSync{images: []uint32{0, 1}, current: 1}
	s := newTestSwapchain(2, sync)

	_, _, err := s.AcquireNextImage()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, sync.waits)
}

func TestImageInFlightWaitsOnOwner(t *testing.T) {
	// Three images, two slots: the fourth frame gets image 0 back while
	// slot 0 last used it.
	sync := &fakeSync{images: []uint32{0, 1, 2, 0}}
	s := newTestSwapchain(3, sync)

	for i := 0; i < 3; i++ {
		frame(t, s)
	}
	assert.Equal(t, []int{0, 1, 0}, s.imagesInFlight)

	sync.waits = nil
	frame(t, s)
	// Acquire waits on slot 1, then image 0 forces a wait on slot 0.
	assert.Equal(t, []int{1, 0}, sync.waits)
	assert.Equal(t, 1, s.imagesInFlight[0])
}

func TestImagesInFlightStartEmpty(t *testing.T) {
	s := newTestSwapchain(4, &fakeSync{images: []uint32{0}})
	assert.Equal(t, []int{noFrame, noFrame, noFrame, noFrame}, s.imagesInFlight)
}

func TestPresentSignalsRecreate(t *testing.T) {
	for _, result := range []vk.Result{vk.ErrorOutOfDate, vk.Suboptimal} {
		sync := &fakeSync{images: []uint32{0, 1}, presentResults: []vk.Result{result}}
		s := newTestSwapchain(2, sync)

		assert.True(t, frame(t, s))
		assert.Equal(t, 1, s.FrameIndex(), "submitted frames advance the cursor")
	}
}

func TestPresentFailure(t *testing.T) {
	sync := &fakeSync{images: []uint32{0}, presentResults: []vk.Result{vk.ErrorSurfaceLost}}
	s := newTestSwapchain(1, sync)

	idx, _, err := s.AcquireNextImage()
	require.NoError(t, err)
	_, err = s.SubmitAndPresent(nil, idx)
	assert.ErrorIs(t, err, ErrPresentFailed)
}

func TestSubmitFailureKeepsCursor(t *testing.T) {
	sync := &fakeSync{images: []uint32{0}, submitErr: errors.New("device lost")}
	s := newTestSwapchain(1, sync)

	idx, _, err := s.AcquireNextImage()
	require.NoError(t, err)
	_, err = s.SubmitAndPresent(nil, idx)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, 0, s.FrameIndex())
	assert.Empty(t, sync.presents)
}

func TestSubmitRejectsIndexOutOfRange(t *testing.T) {
	s := newTestSwapchain(2, &fakeSync{images: []uint32{0}})
	_, err := s.SubmitAndPresent(nil, 2)
	assert.ErrorIs(t, err, ErrImageIndex)
}

func TestCompareFormats(t *testing.T) {
	a := newTestSwapchain(2, &fakeSync{})
	assert.True(t, a.CompareFormats(a.Formats()))

	color := a.Formats()
	color.Color = vk.FormatR8g8b8a8Srgb
	assert.False(t, a.CompareFormats(color))

	depth := a.Formats()
	depth.Depth = vk.FormatD24UnormS8Uint
	assert.False(t, a.CompareFormats(depth))
}
