package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyFromGLFW(t *testing.T) {
	k, ok := KeyFromGLFW(glfw.KeyW)
	assert.True(t, ok)
	assert.Equal(t, KeyW, k)

	k, ok = KeyFromGLFW(glfw.KeyKP7)
	assert.True(t, ok)
	assert.Equal(t, KeyNumpad7, k)

	_, ok = KeyFromGLFW(glfw.KeyPrintScreen)
	assert.False(t, ok)

	seen := make(map[Key]glfw.Key, len(glfwKeys))
	for g, k := range glfwKeys {
		if prev, dup := seen[k]; dup {
			t.Errorf("key %d mapped from both %d and %d", k, prev, g)
		}
		seen[k] = g
		assert.True(t, k.valid(), "key %d out of range", k)
	}
	assert.Len(t, seen, int(numKeys), "every key has a GLFW mapping")
}

func TestKeyboardEdges(t *testing.T) {
	var kb Keyboard

	assert.True(t, kb.IsKeyUp(KeyW))
	assert.False(t, kb.IsKeyUpEdge(KeyW))

	kb.NotifyKeyDown(KeyW)
	assert.True(t, kb.IsKeyDown(KeyW))
	assert.True(t, kb.IsKeyDownEdge(KeyW))

	kb.SwapBuffers()
	assert.True(t, kb.IsKeyDown(KeyW))
	assert.False(t, kb.IsKeyDownEdge(KeyW), "held keys have no edge")

	kb.NotifyKeyUp(KeyW)
	assert.True(t, kb.IsKeyUp(KeyW))
	assert.True(t, kb.IsKeyUpEdge(KeyW))

	kb.SwapBuffers()
	assert.False(t, kb.IsKeyUpEdge(KeyW))
}

func TestKeyboardIgnoresUnknownKeys(t *testing.T) {
	var kb Keyboard
	kb.NotifyKeyDown(KeyUnknown)
	kb.NotifyKeyDown(numKeys)
	assert.False(t, kb.IsKeyDown(KeyUnknown))
	assert.True(t, kb.IsKeyUp(numKeys))
}

func TestMouseDeltasWhileCaptured(t *testing.T) {
	var m Mouse

	m.OnCursorPos(10, 10)
	m.OnCursorPos(20, 30)
	assert.Zero(t, m.DeltaX(), "motion is ignored until captured")

	m.SetCaptured(true)
	m.OnCursorPos(100, 100)
	assert.Zero(t, m.DeltaX(), "first position after capture is the reference")

	m.OnCursorPos(103, 98)
	m.OnCursorPos(110, 90)
	assert.Equal(t, 10.0, m.DeltaX())
	assert.Equal(t, -10.0, m.DeltaY())

	m.OnFrameBegin()
	assert.Zero(t, m.DeltaX())
	assert.Zero(t, m.DeltaY())

	m.OnCursorPos(111, 90)
	assert.Equal(t, 1.0, m.DeltaX())

	m.SetCaptured(false)
	assert.False(t, m.Captured())
	assert.Zero(t, m.DeltaX())
}
