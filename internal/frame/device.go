package frame

import (
	"errors"

	"github.com/san-kum/nbody/internal/compute"
	"github.com/san-kum/nbody/internal/dynamo"
)

const (
	labelDevBodies        = "dev bodys"
	labelDevVelocities    = "dev vels"
	labelDevAccelerations = "dev accels"
)

// DeviceFrame mirrors a frame in accelerator memory. Bodies and velocities
// stay on the host as the transfer source and destination; accelerations
// exist only on the device.
type DeviceFrame struct {
	*Particles
	rt               compute.Runtime
	devBodies        compute.Ptr
	devVelocities    compute.Ptr
	devAccelerations compute.Ptr
	freed            bool
}

// NewDeviceFrame takes ownership of p and allocates the three device
// buffers. On failure the device buffers already allocated are released
// and p is left unowned; release failures are joined to the returned error.
func NewDeviceFrame(p *Particles, rt compute.Runtime) (*DeviceFrame, error) {
	if err := p.claim(); err != nil {
		return nil, err
	}

	size := p.Len() * dynamo.Vec4Size
	labels := [3]string{labelDevBodies, labelDevVelocities, labelDevAccelerations}
	var ptrs [3]compute.Ptr
	for i, label := range labels {
		ptr, err := compute.Malloc(rt, label, size)
		if err != nil {
			errs := []error{err}
			for j := 0; j < i; j++ {
				errs = append(errs, compute.Release(rt, labels[j], ptrs[j]))
			}
			p.owned = false
			return nil, errors.Join(errs...)
		}
		ptrs[i] = ptr
	}

	return &DeviceFrame{
		Particles:        p,
		rt:               rt,
		devBodies:        ptrs[0],
		devVelocities:    ptrs[1],
		devAccelerations: ptrs[2],
	}, nil
}

func (f *DeviceFrame) Mode() dynamo.Mode { return dynamo.DeviceMode }

// Pointers returns the device handles for a force kernel.
func (f *DeviceFrame) Pointers() (bodies, velocities, accelerations compute.Ptr) {
	return f.devBodies, f.devVelocities, f.devAccelerations
}

// Upload copies bodies and velocities to the device.
func (f *DeviceFrame) Upload() error {
	if f.freed {
		return dynamo.ErrFreed
	}
	if err := compute.CopyToDevice(f.rt, "bodys to device", f.devBodies, dynamo.Vec4Bytes(f.Particles.bodies)); err != nil {
		return err
	}
	return compute.CopyToDevice(f.rt, "vels to device", f.devVelocities, dynamo.Vec4Bytes(f.Particles.velocities))
}

// Download copies bodies and velocities back from the device.
func (f *DeviceFrame) Download() error {
	if f.freed {
		return dynamo.ErrFreed
	}
	if err := compute.CopyToHost(f.rt, "bodys to host", dynamo.Vec4Bytes(f.Particles.bodies), f.devBodies); err != nil {
		return err
	}
	return compute.CopyToHost(f.rt, "vels to host", dynamo.Vec4Bytes(f.Particles.velocities), f.devVelocities)
}

// UploadAccelerations seeds the device accelerations from src, which must
// hold exactly Len vectors.
func (f *DeviceFrame) UploadAccelerations(src []dynamo.Vec4) error {
	if f.freed {
		return dynamo.ErrFreed
	}
	if len(src) != f.Len() {
		return dynamo.ErrLengthMismatch
	}
	return compute.CopyToDevice(f.rt, "accels to device", f.devAccelerations, dynamo.Vec4Bytes(src))
}

// DownloadAccelerations reads the device accelerations into dst. The frame
// keeps no host copy; the caller owns dst.
func (f *DeviceFrame) DownloadAccelerations(dst []dynamo.Vec4) error {
	if f.freed {
		return dynamo.ErrFreed
	}
	if len(dst) != f.Len() {
		return dynamo.ErrLengthMismatch
	}
	return compute.CopyToHost(f.rt, "accels to host", dynamo.Vec4Bytes(dst), f.devAccelerations)
}

// Free releases bodies and velocities on the host and the three device
// buffers.
func (f *DeviceFrame) Free() error {
	if f.freed {
		return dynamo.ErrFreed
	}
	f.freed = true
	return errors.Join(
		f.Particles.release(),
		compute.Release(f.rt, labelDevBodies, f.devBodies),
		compute.Release(f.rt, labelDevVelocities, f.devVelocities),
		compute.Release(f.rt, labelDevAccelerations, f.devAccelerations),
	)
}
