package frame

import "github.com/san-kum/nbody/internal/dynamo"

// Frame is a snapshot in one of the two ownership modes.
type Frame interface {
	Mode() dynamo.Mode
	Len() int
	Bodies() []dynamo.Vec4
	Velocities() []dynamo.Vec4
	Free() error
}

// Free tears f down, releasing whichever buffers its mode holds. Calling it
// twice returns dynamo.ErrFreed.
func Free(f Frame) error {
	return f.Free()
}

var (
	_ Frame = (*HostFrame)(nil)
	_ Frame = (*DeviceFrame)(nil)
)
