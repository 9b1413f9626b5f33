package gfx

import (
	"fmt"
	"strings"
)

// API tags a concrete backend. Backends are selected with a switch on the
// tag; only one exists today.
type API string

const (
	APIWebGPU API = "webgpu"
)

func ParseAPI(s string) (API, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "webgpu", "wgpu":
		return APIWebGPU, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAPI, s)
}

// System bundles the three faces of one backend instance.
type System struct {
	API             API
	Device          Device
	ResourceManager ResourceManager
	Renderer        Renderer
}

type releaser interface {
	Release()
}

// Release tears the backend down renderer first, device last.
func (s *System) Release() {
	if s == nil {
		return
	}
	if r, ok := s.Renderer.(releaser); ok {
		r.Release()
	}
	if rm, ok := s.ResourceManager.(releaser); ok {
		rm.Release()
	}
	if s.Device != nil {
		s.Device.Release()
	}
}
