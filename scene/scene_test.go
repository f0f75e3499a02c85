// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package scene_test

import (
	"sync"
	"testing"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/koru3d/vkframe/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocator(t *testing.T) {
	var ids scene.IDAllocator
	assert.Equal(t, scene.ObjectID(1), ids.Next())
	assert.Equal(t, scene.ObjectID(2), ids.Next())

	var other scene.IDAllocator
	assert.Equal(t, scene.ObjectID(1), other.Next())
}

func TestIDAllocatorConcurrent(t *testing.T) {
	var ids scene.IDAllocator
	seen := make([]scene.ObjectID, 100)

	var wg sync.WaitGroup
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = ids.Next()
		}(i)
	}
	wg.Wait()

	unique := map[scene.ObjectID]bool{}
	for _, id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 100)
}

func TestArenaLifecycle(t *testing.T) {
	var arena scene.Arena[string]

	a := arena.Insert("a")
	b := arena.Insert("b")
	assert.Equal(t, 2, arena.Len())
	assert.False(t, a.IsZero())

	v, err := arena.Get(b)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, arena.Update(a, func(s *string) { *s += "!" }))
	v, err = arena.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "a!", v)

	removed, err := arena.Remove(a)
	require.NoError(t, err)
	assert.Equal(t, "a!", removed)
	assert.Equal(t, 1, arena.Len())

	_, err = arena.Get(a)
	assert.ErrorIs(t, err, scene.ErrStaleHandle)
	_, err = arena.Remove(a)
	assert.ErrorIs(t, err, scene.ErrStaleHandle)
}

func TestArenaReuseInvalidatesOldHandles(t *testing.T) {
	var arena scene.Arena[int]

	old := arena.Insert(1)
	_, err := arena.Remove(old)
	require.NoError(t, err)

	reused := arena.Insert(2)
	assert.NotEqual(t, old, reused)

	_, err = arena.Get(old)
	assert.ErrorIs(t, err, scene.ErrStaleHandle)
	assert.ErrorIs(t, arena.Update(old, func(*int) {}), scene.ErrStaleHandle)

	v, err := arena.Get(reused)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestArenaZeroHandle(t *testing.T) {
	var arena scene.Arena[int]
	arena.Insert(1)

	var zero scene.Handle
	assert.True(t, zero.IsZero())
	_, err := arena.Get(zero)
	assert.ErrorIs(t, err, scene.ErrStaleHandle)
}

func TestTransformMat4(t *testing.T) {
	assert.True(t, scene.IdentityTransform().Mat4().ApproxEqual(glm.Ident4()))

	tr := scene.IdentityTransform()
	tr.Translation = glm.Vec3{1, 2, 3}
	tr.Scale = glm.Vec3{2, 2, 2}
	tr.Rotation = glm.QuatRotate(glm.DegToRad(90), glm.Vec3{0, 0, 1})

	p := tr.Mat4().Mul4x1(glm.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 1.0, p.X(), 1e-5)
	assert.InDelta(t, 4.0, p.Y(), 1e-5)
	assert.InDelta(t, 3.0, p.Z(), 1e-5)
}

func TestWorldSpawn(t *testing.T) {
	w := scene.NewWorld()
	cube := w.Models.Insert(scene.Model{Name: "cube"})

	first, err := w.Spawn(cube, scene.IdentityTransform())
	require.NoError(t, err)
	second, err := w.Spawn(cube, scene.IdentityTransform())
	require.NoError(t, err)

	a, err := w.Objects.Get(first)
	require.NoError(t, err)
	b, err := w.Objects.Get(second)
	require.NoError(t, err)
	assert.Equal(t, scene.ObjectID(1), a.ID)
	assert.Equal(t, scene.ObjectID(2), b.ID)
	assert.Equal(t, cube, a.Model)

	_, err = w.Models.Remove(cube)
	require.NoError(t, err)
	_, err = w.Spawn(cube, scene.IdentityTransform())
	assert.ErrorIs(t, err, scene.ErrStaleHandle)

	uniforms := w.Uniforms(glm.Ident4(), glm.Ident4())
	assert.Len(t, uniforms, 2)
}

func TestVertexDescriptions(t *testing.T) {
	bindings := scene.VertexBindingDescriptions()
	require.Len(t, bindings, 1)
	assert.Equal(t, uint32(unsafe.Sizeof(scene.Vertex{})), bindings[0].Stride)

	attributes := scene.VertexAttributeDescriptions()
	require.Len(t, attributes, 2)
	assert.Equal(t, uint32(0), attributes[0].Offset)
	assert.Equal(t, uint32(12), attributes[1].Offset)
}
