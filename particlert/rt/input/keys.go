package input

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyUnknown Key = iota - 1
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyLeftShift
	KeyRightShift
	KeyLeftControl
	KeyRightControl
	KeyLeftAlt
	KeyRightAlt
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	numKeys
)

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyA:            KeyA,
	glfw.KeyB:            KeyB,
	glfw.KeyC:            KeyC,
	glfw.KeyD:            KeyD,
	glfw.KeyE:            KeyE,
	glfw.KeyF:            KeyF,
	glfw.KeyG:            KeyG,
	glfw.KeyH:            KeyH,
	glfw.KeyI:            KeyI,
	glfw.KeyJ:            KeyJ,
	glfw.KeyK:            KeyK,
	glfw.KeyL:            KeyL,
	glfw.KeyM:            KeyM,
	glfw.KeyN:            KeyN,
	glfw.KeyO:            KeyO,
	glfw.KeyP:            KeyP,
	glfw.KeyQ:            KeyQ,
	glfw.KeyR:            KeyR,
	glfw.KeyS:            KeyS,
	glfw.KeyT:            KeyT,
	glfw.KeyU:            KeyU,
	glfw.KeyV:            KeyV,
	glfw.KeyW:            KeyW,
	glfw.KeyX:            KeyX,
	glfw.KeyY:            KeyY,
	glfw.KeyZ:            KeyZ,
	glfw.Key0:            Key0,
	glfw.Key1:            Key1,
	glfw.Key2:            Key2,
	glfw.Key3:            Key3,
	glfw.Key4:            Key4,
	glfw.Key5:            Key5,
	glfw.Key6:            Key6,
	glfw.Key7:            Key7,
	glfw.Key8:            Key8,
	glfw.Key9:            Key9,
	glfw.KeyKP0:          KeyNumpad0,
	glfw.KeyKP1:          KeyNumpad1,
	glfw.KeyKP2:          KeyNumpad2,
	glfw.KeyKP3:          KeyNumpad3,
	glfw.KeyKP4:          KeyNumpad4,
	glfw.KeyKP5:          KeyNumpad5,
	glfw.KeyKP6:          KeyNumpad6,
	glfw.KeyKP7:          KeyNumpad7,
	glfw.KeyKP8:          KeyNumpad8,
	glfw.KeyKP9:          KeyNumpad9,
	glfw.KeySpace:        KeySpace,
	glfw.KeyEnter:        KeyEnter,
	glfw.KeyEscape:       KeyEscape,
	glfw.KeyTab:          KeyTab,
	glfw.KeyLeftShift:    KeyLeftShift,
	glfw.KeyRightShift:   KeyRightShift,
	glfw.KeyLeftControl:  KeyLeftControl,
	glfw.KeyRightControl: KeyRightControl,
	glfw.KeyLeftAlt:      KeyLeftAlt,
	glfw.KeyRightAlt:     KeyRightAlt,
	glfw.KeyInsert:       KeyInsert,
	glfw.KeyDelete:       KeyDelete,
	glfw.KeyHome:         KeyHome,
	glfw.KeyEnd:          KeyEnd,
	glfw.KeyRight:        KeyRight,
	glfw.KeyLeft:         KeyLeft,
	glfw.KeyDown:         KeyDown,
	glfw.KeyUp:           KeyUp,
	glfw.KeyF1:           KeyF1,
	glfw.KeyF2:           KeyF2,
	glfw.KeyF3:           KeyF3,
	glfw.KeyF4:           KeyF4,
	glfw.KeyF5:           KeyF5,
	glfw.KeyF6:           KeyF6,
	glfw.KeyF7:           KeyF7,
	glfw.KeyF8:           KeyF8,
	glfw.KeyF9:           KeyF9,
	glfw.KeyF10:          KeyF10,
	glfw.KeyF11:          KeyF11,
	glfw.KeyF12:          KeyF12,
}

// KeyFromGLFW maps a GLFW key to a Key. Keys with no mapping report false.
func KeyFromGLFW(k glfw.Key) (Key, bool) {
	key, ok := glfwKeys[k]
	return key, ok
}
