// Package compute provides the accelerator runtimes that back device-mode
// frames, and the protected allocation and transfer primitives built on
// them.
//
// The package selects the best available runtime:
//
//   - CUDA: libcudart through cgo, built with the cuda tag
//   - Emulator: device memory simulated in host memory
//
// # Transfers
//
// Every device operation is followed by a query of the runtime's last
// error. A non-success status becomes a [dynamo.FatalError] naming the
// buffer:
//
//	ptr, err := compute.Malloc(rt, "dev bodys", n*dynamo.Vec4Size)
//	err = compute.CopyToDevice(rt, "bodys to device", ptr, dynamo.Vec4Bytes(bodies))
//
// Build with CUDA support:
//
//	go build -tags cuda ./...
package compute
