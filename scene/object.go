// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package scene

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Transform places an object in space.
type Transform struct {
	Translation glm.Vec3
	Rotation    glm.Quat
	Scale       glm.Vec3
}

// IdentityTransform leaves an object where its model puts it.
func IdentityTransform() Transform {
	return Transform{
		Rotation: glm.QuatIdent(),
		Scale:    glm.Vec3{1, 1, 1},
	}
}

// Mat4 composes translation, rotation and scale, applied in reverse order.
func (t Transform) Mat4() glm.Mat4 {
	return glm.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(glm.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Object is an instance of a model in the world.
type Object struct {
	ID        ObjectID
	Model     Handle
	Transform Transform
}

// Model is the vertex data an object refers to.
type Model struct {
	Name     string
	Vertices []Vertex
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// VertexBindingDescriptions describe the single interleaved vertex stream.
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions describe position at location 0 and color at 1.
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
