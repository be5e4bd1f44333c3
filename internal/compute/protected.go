package compute

import (
	"github.com/san-kum/nbody/internal/dynamo"
)

// Check drains the runtime's last error. A pending failure is reported
// against label with the runtime's own description.
func Check(rt Runtime, label string) error {
	if s := rt.LastError(); s != StatusSuccess {
		return dynamo.Fatalf(dynamo.KindAccelerator, label, "%s (status %d)", rt.ErrorString(s), int(s))
	}
	return nil
}

// Malloc allocates size bytes of device memory. Any pending runtime error
// after the call is an allocation failure.
func Malloc(rt Runtime, label string, size int) (Ptr, error) {
	if size < 1 {
		return 0, dynamo.Fatalf(dynamo.KindResource, label, "too small memory amount (%d)", size)
	}

	p := rt.Malloc(size)
	if s := rt.LastError(); s != StatusSuccess {
		return 0, dynamo.Fatalf(dynamo.KindResource, label, "couldn't allocate device memory: %s", rt.ErrorString(s))
	}
	if p == 0 {
		return 0, dynamo.Fatalf(dynamo.KindResource, label, "couldn't allocate device memory: null handle")
	}
	return p, nil
}

// Release frees device memory and checks the runtime afterwards.
func Release(rt Runtime, label string, p Ptr) error {
	rt.Free(p)
	return Check(rt, label)
}

// CopyToDevice copies src into device memory at dst. The copy is blocking;
// when it returns without error every byte has arrived.
func CopyToDevice(rt Runtime, label string, dst Ptr, src []byte) error {
	rt.MemcpyHtoD(dst, src)
	return Check(rt, label)
}

// CopyToHost copies len(dst) bytes of device memory at src into dst.
func CopyToHost(rt Runtime, label string, dst []byte, src Ptr) error {
	rt.MemcpyDtoH(dst, src)
	return Check(rt, label)
}
