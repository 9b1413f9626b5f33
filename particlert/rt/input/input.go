// Package input tracks keyboard and mouse state between frames.
package input

// KeyState is the read side of a keyboard.
type KeyState interface {
	IsKeyDown(k Key) bool
	IsKeyUp(k Key) bool
	IsKeyDownEdge(k Key) bool
	IsKeyUpEdge(k Key) bool
}

// MouseState reports cursor motion in pixels since the last frame began.
type MouseState interface {
	DeltaX() float64
	DeltaY() float64
}

// Keyboard keeps the key state of the current and the previous frame so
// that press and release edges can be detected.
type Keyboard struct {
	previous [numKeys]bool
	current  [numKeys]bool
}

func (k Key) valid() bool {
	return k >= 0 && k < numKeys
}

func (kb *Keyboard) NotifyKeyDown(k Key) {
	if k.valid() {
		kb.current[k] = true
	}
}

func (kb *Keyboard) NotifyKeyUp(k Key) {
	if k.valid() {
		kb.current[k] = false
	}
}

func (kb *Keyboard) IsKeyDown(k Key) bool {
	return k.valid() && kb.current[k]
}

func (kb *Keyboard) IsKeyUp(k Key) bool {
	return !kb.IsKeyDown(k)
}

func (kb *Keyboard) IsKeyDownEdge(k Key) bool {
	return k.valid() && kb.current[k] && !kb.previous[k]
}

func (kb *Keyboard) IsKeyUpEdge(k Key) bool {
	return k.valid() && !kb.current[k] && kb.previous[k]
}

// SwapBuffers ends the frame: the current state becomes the previous one.
func (kb *Keyboard) SwapBuffers() {
	kb.previous = kb.current
}

// Mouse accumulates cursor motion between frames. Motion is only counted
// while the cursor is captured.
type Mouse struct {
	deltaX, deltaY float64
	lastX, lastY   float64
	haveLast       bool
	captured       bool
}

// OnCursorPos records an absolute cursor position reported by the window.
// The first position after a capture change only sets the reference point.
func (m *Mouse) OnCursorPos(x, y float64) {
	if m.captured && m.haveLast {
		m.deltaX += x - m.lastX
		m.deltaY += y - m.lastY
	}
	m.lastX, m.lastY = x, y
	m.haveLast = true
}

// OnFrameBegin discards the motion accumulated so far.
func (m *Mouse) OnFrameBegin() {
	m.deltaX, m.deltaY = 0, 0
}

func (m *Mouse) DeltaX() float64 { return m.deltaX }
func (m *Mouse) DeltaY() float64 { return m.deltaY }

func (m *Mouse) Captured() bool { return m.captured }

func (m *Mouse) SetCaptured(captured bool) {
	if m.captured == captured {
		return
	}
	m.captured = captured
	m.haveLast = false
	m.OnFrameBegin()
}
