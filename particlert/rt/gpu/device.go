package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/particles"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Options struct {
	// VSync selects Fifo presentation; otherwise Immediate.
	VSync bool
}

// Device owns the wgpu instance, surface and device of one window and the
// swap chain frame currently being drawn.
type Device struct {
	window *glfw.Window
	logger particles.Logger

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	frame     *wgpu.Texture
	frameView *wgpu.TextureView

	// pendingClear is consumed by the first render pass of the frame.
	pendingClear *wgpu.Color
}

func NewDevice(window *glfw.Window, opts Options, logger particles.Logger) (*Device, error) {
	d := &Device{window: window, logger: particles.OrNop(logger)}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}
	d.adapter = adapter

	d.device, err = adapter.RequestDevice(nil)
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}
	d.queue = d.device.GetQueue()

	caps := d.surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		d.Release()
		return nil, fmt.Errorf("gpu: surface is not compatible with the adapter")
	}

	presentMode := wgpu.PresentModeImmediate
	if opts.VSync {
		presentMode = wgpu.PresentModeFifo
	}

	width, height := window.GetFramebufferSize()
	d.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	}
	if width > 0 && height > 0 {
		d.surface.Configure(adapter, d.device, d.config)
	}

	d.logger.Infof("gpu device ready: %dx%d, format %v, vsync %v", width, height, d.config.Format, opts.VSync)
	return d, nil
}

func (d *Device) Format() wgpu.TextureFormat {
	return d.config.Format
}

func (d *Device) Size() (int, int) {
	return int(d.config.Width), int(d.config.Height)
}

// currentView acquires this frame's surface texture on first use.
func (d *Device) currentView() (*wgpu.TextureView, error) {
	if d.frameView != nil {
		return d.frameView, nil
	}
	if d.config.Width == 0 || d.config.Height == 0 {
		return nil, fmt.Errorf("gpu: surface has zero size")
	}

	texture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("gpu: acquire surface texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("gpu: surface texture view: %w", err)
	}
	d.frame, d.frameView = texture, view
	return view, nil
}

func (d *Device) setClear(c *wgpu.Color) {
	d.pendingClear = c
}

// colorAttachment returns the attachment for the next pass, clearing if a
// clear is still pending.
func (d *Device) colorAttachment(view *wgpu.TextureView) wgpu.RenderPassColorAttachment {
	attachment := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if d.pendingClear != nil {
		attachment.LoadOp = wgpu.LoadOpClear
		attachment.ClearValue = *d.pendingClear
		d.pendingClear = nil
	}
	return attachment
}

// encodePass records one render pass into a fresh encoder and submits it.
func (d *Device) encodePass(label string, record func(pass *wgpu.RenderPassEncoder)) error {
	view, err := d.currentView()
	if err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: %s: command encoder: %w", label, err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{d.colorAttachment(view)},
	})
	if record != nil {
		record(pass)
	}
	err = pass.End()
	pass.Release()
	if err != nil {
		return fmt.Errorf("gpu: %s: end pass: %w", label, err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: %s: finish: %w", label, err)
	}
	d.queue.Submit(cmd)
	return nil
}

// SwapBuffers presents the frame. A clear that no draw consumed is flushed
// first so an empty frame still shows the clear color.
func (d *Device) SwapBuffers() {
	if d.pendingClear != nil {
		if err := d.encodePass("clear", nil); err != nil {
			d.logger.Errorf("%v", err)
		}
	}
	if d.frameView == nil {
		return
	}
	d.surface.Present()
	d.releaseFrame()
}

func (d *Device) releaseFrame() {
	if d.frameView != nil {
		d.frameView.Release()
		d.frameView = nil
	}
	if d.frame != nil {
		d.frame.Release()
		d.frame = nil
	}
}

func (d *Device) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		d.config.Width, d.config.Height = 0, 0
		return
	}
	d.releaseFrame()
	d.config.Width = uint32(width)
	d.config.Height = uint32(height)
	d.surface.Configure(d.adapter, d.device, d.config)
	d.logger.Debugf("surface resized to %dx%d", width, height)
}

func (d *Device) Release() {
	d.releaseFrame()
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
