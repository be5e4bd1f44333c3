package dynamo

import (
	"math"
	"unsafe"
)

// Vec4Size is the size in bytes of one Vec4, the unit of every host and
// device buffer.
const Vec4Size = int(unsafe.Sizeof(Vec4{}))

// Vec4 mirrors float4. W holds mass in a bodies buffer and is unused
// elsewhere.
type Vec4 struct {
	X, Y, Z, W float32
}

func (v Vec4) Mass() float32 { return v.W }

func (v Vec4) Norm() float64 {
	return math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z))
}

func (v Vec4) IsValid() bool {
	for _, c := range [4]float32{v.X, v.Y, v.Z, v.W} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Vec4Bytes returns the backing memory of vs as bytes. The result aliases
// vs and must not outlive it.
func Vec4Bytes(vs []Vec4) []byte {
	if len(vs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(vs))), len(vs)*Vec4Size)
}

// Mode is the ownership mode of a frame.
type Mode int

const (
	HostMode Mode = iota + 1
	DeviceMode
)

func (m Mode) String() string {
	switch m {
	case HostMode:
		return "host"
	case DeviceMode:
		return "device"
	default:
		return "invalid"
	}
}
