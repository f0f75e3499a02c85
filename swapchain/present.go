// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// AcquireNextImage waits for the current frame slot to be free and acquires
// an image. needsRecreate is true, with no image, when the surface is out of
// date.
func (s *Swapchain) AcquireNextImage() (imageIndex uint32, needsRecreate bool, err error) {
	frame := s.sync.Current()
	if err := s.sync.WaitFrame(frame); err != nil {
		return 0, false, err
	}

	imageIndex, result := s.sync.Acquire(s.handle, frame)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		s.log.Debug("acquire: surface out of date")
		return 0, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s", ErrAcquireFailed, vk.Error(result))
	}

	if int(imageIndex) >= len(s.images) {
		return 0, false, fmt.Errorf("%w: %d of %d", ErrImageIndex, imageIndex, len(s.images))
	}
	return imageIndex, false, nil
}

// SubmitAndPresent submits commandBuffer for the acquired image and presents
// it. It first waits on the frame that last used the image, if any. The frame
// cursor advances once the submission is queued. needsRecreate is true when
// presentation reports the surface out of date or suboptimal.
func (s *Swapchain) SubmitAndPresent(commandBuffer vk.CommandBuffer, imageIndex uint32) (needsRecreate bool, err error) {
	if int(imageIndex) >= len(s.imagesInFlight) {
		return false, fmt.Errorf("%w: %d of %d", ErrImageIndex, imageIndex, len(s.imagesInFlight))
	}

	frame := s.sync.Current()
	if owner := s.imagesInFlight[imageIndex]; owner != noFrame && owner != frame {
		if err := s.sync.WaitFrame(owner); err != nil {
			return false, err
		}
	}
	s.imagesInFlight[imageIndex] = frame

	if err := s.sync.ResetFrame(frame); err != nil {
		return false, err
	}
	if err := s.sync.Submit(frame, commandBuffer); err != nil {
		return false, fmt.Errorf("%w: %s", ErrSubmitFailed, err)
	}
	s.sync.Advance()

	switch result := s.sync.Present(s.handle, frame, imageIndex); result {
	case vk.Success:
		return false, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		s.log.Debug("present: swapchain needs recreation")
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrPresentFailed, vk.Error(result))
	}
}
