//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the platform HAL backends.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// GPUInfo describes the adapter a context renders on.
type GPUInfo struct {
	Name       string
	Vendor     string
	Driver     string
	DeviceType gputypes.DeviceType
	Backend    gputypes.Backend
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

func infoFromAdapter(a gputypes.AdapterInfo) GPUInfo {
	return GPUInfo{
		Name:       a.Name,
		Vendor:     a.Vendor,
		Driver:     a.Driver,
		DeviceType: a.DeviceType,
		Backend:    a.Backend,
	}
}

// device is an opened logical device. instance is nil for devices owned by
// someone else.
type device struct {
	instance hal.Instance
	dev      hal.Device
	queue    hal.Queue
	info     GPUInfo
	limits   gputypes.Limits
	owned    bool
}

func (d *device) destroy() {
	if !d.owned {
		return
	}
	if d.dev != nil {
		d.dev.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}

// openDevice opens the preferred adapter of the most capable HAL backend.
// Discrete and integrated GPUs win over virtual and CPU adapters.
func openDevice() (*device, error) {
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	limits := gputypes.DefaultLimits()
	open, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	return &device{
		instance: instance,
		dev:      open.Device,
		queue:    open.Queue,
		info:     infoFromAdapter(selected.Info),
		limits:   limits,
		owned:    true,
	}, nil
}

// halProvider is implemented by device providers that share HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// deviceFromProvider borrows the device of a host application.
func deviceFromProvider(p gpucontext.DeviceProvider) (*device, error) {
	if p == nil {
		return nil, ErrNotHALProvider
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotHALProvider, p)
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHALProvider)
	}
	info := p.AdapterInfo()
	return &device{
		dev:    dev,
		queue:  queue,
		info:   GPUInfo{Name: info.Name},
		limits: gputypes.DefaultLimits(),
	}, nil
}
