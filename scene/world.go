// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package scene holds the objects a frame draws. Objects refer to models
// through arena handles rather than pointers.
package scene

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
)

// World owns models, objects and the id allocator for them.
type World struct {
	ids     IDAllocator
	Models  Arena[Model]
	Objects Arena[Object]
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{}
}

// Spawn places a new object of the model in the world.
func (w *World) Spawn(model Handle, transform Transform) (Handle, error) {
	if _, err := w.Models.Get(model); err != nil {
		return Handle{}, fmt.Errorf("spawn: model: %w", err)
	}
	return w.Objects.Insert(Object{
		ID:        w.ids.Next(),
		Model:     model,
		Transform: transform,
	}), nil
}

// Uniforms builds the per-object uniform data for a camera.
func (w *World) Uniforms(view, projection glm.Mat4) []Uniform {
	uniforms := make([]Uniform, 0, w.Objects.Len())
	w.Objects.Each(func(_ Handle, o *Object) {
		uniforms = append(uniforms, Uniform{
			Model:      o.Transform.Mat4(),
			View:       view,
			Projection: projection,
		})
	})
	return uniforms
}
