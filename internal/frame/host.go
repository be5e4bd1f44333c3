package frame

import (
	"errors"

	"github.com/san-kum/nbody/internal/dynamo"
)

// HostFrame keeps accelerations in host memory.
type HostFrame struct {
	*Particles
	accelerations []dynamo.Vec4
	freed         bool
}

// NewHostFrame takes ownership of p and allocates its accelerations buffer
// from the same allocator.
func NewHostFrame(p *Particles) (*HostFrame, error) {
	if err := p.claim(); err != nil {
		return nil, err
	}
	accels, err := p.alloc.Vec4s(labelAccelerations, p.Len())
	if err != nil {
		p.owned = false
		return nil, err
	}
	return &HostFrame{Particles: p, accelerations: accels}, nil
}

func (f *HostFrame) Mode() dynamo.Mode { return dynamo.HostMode }

func (f *HostFrame) Accelerations() []dynamo.Vec4 { return f.accelerations }

// Free releases bodies, velocities and accelerations.
func (f *HostFrame) Free() error {
	if f.freed {
		return dynamo.ErrFreed
	}
	f.freed = true
	return errors.Join(f.Particles.release(), f.alloc.Free(f.accelerations))
}
