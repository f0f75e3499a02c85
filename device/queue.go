// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koru3d/vkframe/surface"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slices"
)

// QueueFamilyIndices are the queue families in use. Graphics and
// present may be the same family.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32

	hasGraphics bool
	hasPresent  bool
}

// Complete reports if both families were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

// Shared reports if one family serves both graphics and present.
func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics == q.Present
}

// Unique returns the distinct families, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// FindQueueFamilies picks the first graphics capable family and the first
// family able to present.
func FindQueueFamilies(families []vk.QueueFamilyProperties, presentSupport func(family uint32) bool) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i, family := range families {
		idx := uint32(i)
		if family.QueueCount == 0 {
			continue
		}
		if !indices.hasGraphics && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = idx
			indices.hasGraphics = true
		}
		if !indices.hasPresent && presentSupport(idx) {
			indices.Present = idx
			indices.hasPresent = true
		}
		if indices.Complete() {
			break
		}
	}
	return indices
}

func missingExtensions(available, required []string) []string {
	var missing []string
	for _, ext := range required {
		if !slices.Contains(available, ext) {
			missing = append(missing, ext)
		}
	}
	return missing
}

func checkSuitable(families QueueFamilyIndices, extensions, required []string, support surface.SupportDetails) error {
	switch {
	case !families.hasGraphics:
		return errors.New("no graphics queue family")
	case !families.hasPresent:
		return errors.New("no queue family can present to the surface")
	}
	if missing := missingExtensions(extensions, required); len(missing) > 0 {
		return fmt.Errorf("missing extensions %s", strings.Join(missing, ", "))
	}
	if !support.Adequate() {
		return errors.New("surface reports no formats or present modes")
	}
	return nil
}

var sampleCounts = []vk.SampleCountFlagBits{
	vk.SampleCount64Bit,
	vk.SampleCount32Bit,
	vk.SampleCount16Bit,
	vk.SampleCount8Bit,
	vk.SampleCount4Bit,
	vk.SampleCount2Bit,
}

func maxSampleCount(counts vk.SampleCountFlags) vk.SampleCountFlagBits {
	for _, c := range sampleCounts {
		if counts&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}
