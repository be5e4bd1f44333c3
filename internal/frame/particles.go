package frame

import (
	"errors"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/memory"
)

const (
	labelBodies        = "frame bodys"
	labelVelocities    = "frame vels"
	labelAccelerations = "frame accels"
)

// Particles is the bodies/velocities pair of a frame. Both buffers belong to
// alloc and always have the same length.
type Particles struct {
	alloc      memory.Allocator
	bodies     []dynamo.Vec4
	velocities []dynamo.Vec4
	owned      bool
	freed      bool
}

// NewParticles allocates zeroed buffers for n bodies. If the velocities
// allocation fails the bodies buffer is released before returning.
func NewParticles(alloc memory.Allocator, n int) (*Particles, error) {
	bodies, err := alloc.Vec4s(labelBodies, n)
	if err != nil {
		return nil, err
	}
	velocities, err := alloc.Vec4s(labelVelocities, n)
	if err != nil {
		alloc.Free(bodies)
		return nil, err
	}
	return &Particles{alloc: alloc, bodies: bodies, velocities: velocities}, nil
}

// FromSlices wraps buffers already obtained from alloc.
func FromSlices(alloc memory.Allocator, bodies, velocities []dynamo.Vec4) (*Particles, error) {
	if len(bodies) != len(velocities) {
		return nil, dynamo.ErrLengthMismatch
	}
	return &Particles{alloc: alloc, bodies: bodies, velocities: velocities}, nil
}

func (p *Particles) Len() int                  { return len(p.bodies) }
func (p *Particles) Bodies() []dynamo.Vec4     { return p.bodies }
func (p *Particles) Velocities() []dynamo.Vec4 { return p.velocities }

// Release frees particles that were never promoted into a frame. Once a
// frame owns them, only the frame's Free releases them.
func (p *Particles) Release() error {
	if p.owned {
		return dynamo.ErrAlreadyOwned
	}
	return p.release()
}

func (p *Particles) release() error {
	if p.freed {
		return dynamo.ErrFreed
	}
	p.freed = true
	return errors.Join(p.alloc.Free(p.bodies), p.alloc.Free(p.velocities))
}

func (p *Particles) claim() error {
	if p.freed {
		return dynamo.ErrFreed
	}
	if p.owned {
		return dynamo.ErrAlreadyOwned
	}
	p.owned = true
	return nil
}
