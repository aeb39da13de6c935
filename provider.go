// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoHALDevice is returned by NewFromProvider when the provider does not
// expose a hal.Device.
var ErrNoHALDevice = errors.New("framegraph: provider does not expose a hal.Device")

// halProvider is implemented by providers that hand out the HAL device
// alongside their own wrapper types.
type halProvider interface {
	HalDevice() any
}

// NewFromProvider creates a frame graph on the device of a gogpu device
// provider, so the graph shares the application's GPU device instead of
// opening its own. The provider must either implement HalDevice() any or
// return a hal.Device from Device().
func NewFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Graph, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNoHALDevice)
	}

	var device hal.Device
	if hp, ok := p.(halProvider); ok {
		device, _ = hp.HalDevice().(hal.Device)
	}
	if device == nil {
		device, _ = p.Device().(hal.Device)
	}
	if device == nil {
		return nil, fmt.Errorf("%w: got %T", ErrNoHALDevice, p.Device())
	}

	info := p.AdapterInfo()
	slogger().Debug("framegraph: using provider device",
		"adapter", info.Name, "type", info.Type.String(),
		"surfaceFormat", p.SurfaceFormat())
	return New(device, opts...), nil
}
