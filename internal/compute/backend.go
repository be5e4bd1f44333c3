package compute

import (
	"github.com/rs/zerolog/log"
)

// Ptr is an opaque device memory handle. Zero is the null handle.
type Ptr uintptr

// Status mirrors the accelerator runtime's error codes.
type Status int

const (
	StatusSuccess              Status = 0
	StatusInvalidValue         Status = 1
	StatusMemoryAllocation     Status = 2
	StatusInitializationError  Status = 3
	StatusInvalidDevicePointer Status = 17
	StatusNoDevice             Status = 100
)

// Runtime is the subset of an accelerator runtime the frame store needs.
// Operations report failure through LastError, which returns the pending
// status and resets it to StatusSuccess.
type Runtime interface {
	Name() string
	Available() bool
	Malloc(size int) Ptr
	Free(p Ptr)
	MemcpyHtoD(dst Ptr, src []byte)
	MemcpyDtoH(dst []byte, src Ptr)
	LastError() Status
	ErrorString(s Status) string
}

// AutoSelect returns CUDA when a device is present and an Emulator
// otherwise. deviceLimit caps the emulator's memory, 0 for no cap.
func AutoSelect(deviceLimit int64) Runtime {
	logger := log.Logger.With().Str("component", "compute").Logger()
	cuda := NewCUDA()
	if cuda.Available() {
		logger.Info().Str("runtime", cuda.Name()).Msg("accelerator selected")
		return cuda
	}
	logger.Info().Str("runtime", "emulator").Msg("no CUDA device, emulating accelerator in host memory")
	return NewEmulator(deviceLimit)
}

var statusText = map[Status]string{
	StatusSuccess:              "no error",
	StatusInvalidValue:         "invalid argument",
	StatusMemoryAllocation:     "out of memory",
	StatusInitializationError:  "initialization error",
	StatusInvalidDevicePointer: "invalid device pointer",
	StatusNoDevice:             "no CUDA-capable device is detected",
}

func statusString(s Status) string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return "unrecognized error code"
}
