package compute

import (
	"sort"
	"sync"
)

// Op names a runtime operation for fault injection and call logs.
type Op string

const (
	OpMalloc Op = "malloc"
	OpFree   Op = "free"
	OpHtoD   Op = "memcpy_htod"
	OpDtoH   Op = "memcpy_dtoh"
)

const (
	emulatorBase  = 0x7f0000000000
	emulatorAlign = 256
)

// Emulator is a Runtime whose device memory lives in host memory. It keeps
// CUDA's sticky last-error behaviour and can be told to fail a specific
// operation, which makes it the runtime of choice for tests and for hosts
// without a GPU.
type Emulator struct {
	mu      sync.Mutex
	limit   int64
	used    int64
	next    Ptr
	mem     map[Ptr][]byte
	lastErr Status
	faults  map[Op]Status
	calls   []Op
}

// NewEmulator returns an emulator capped at limit bytes, 0 for no cap.
func NewEmulator(limit int64) *Emulator {
	return &Emulator{
		limit:  limit,
		next:   emulatorBase,
		mem:    make(map[Ptr][]byte),
		faults: make(map[Op]Status),
	}
}

func (e *Emulator) Name() string    { return "emulator" }
func (e *Emulator) Available() bool { return true }

// FailNext makes the next call of op fail with s and leave memory untouched.
func (e *Emulator) FailNext(op Op, s Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faults[op] = s
}

func (e *Emulator) Malloc(size int) Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.injected(OpMalloc) {
		return 0
	}
	if size < 1 {
		e.lastErr = StatusInvalidValue
		return 0
	}
	if e.limit > 0 && e.used+int64(size) > e.limit {
		e.lastErr = StatusMemoryAllocation
		return 0
	}

	p := e.next
	e.mem[p] = make([]byte, size)
	e.used += int64(size)
	e.next += Ptr((size + emulatorAlign - 1) / emulatorAlign * emulatorAlign)
	return p
}

func (e *Emulator) Free(p Ptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.injected(OpFree) {
		return
	}
	if p == 0 {
		return
	}
	buf, ok := e.mem[p]
	if !ok {
		e.lastErr = StatusInvalidDevicePointer
		return
	}
	delete(e.mem, p)
	e.used -= int64(len(buf))
}

func (e *Emulator) MemcpyHtoD(dst Ptr, src []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.injected(OpHtoD) {
		return
	}
	region, ok := e.region(dst, len(src))
	if !ok {
		return
	}
	copy(region, src)
}

func (e *Emulator) MemcpyDtoH(dst []byte, src Ptr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.injected(OpDtoH) {
		return
	}
	region, ok := e.region(src, len(dst))
	if !ok {
		return
	}
	copy(dst, region)
}

func (e *Emulator) LastError() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.lastErr
	e.lastErr = StatusSuccess
	return s
}

func (e *Emulator) ErrorString(s Status) string {
	return statusString(s)
}

// Live returns the number of device allocations not yet freed.
func (e *Emulator) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.mem)
}

// LiveBytes returns the device memory in use.
func (e *Emulator) LiveBytes() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.used
}

// Calls returns the operations issued so far, in order.
func (e *Emulator) Calls() []Op {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Op, len(e.calls))
	copy(out, e.calls)
	return out
}

// Peek copies size bytes of device memory at p, for tests and verification.
func (e *Emulator) Peek(p Ptr, size int) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	region, ok := e.lookup(p, size)
	if !ok {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, region)
	return out, true
}

// injected records the call and consumes a pending fault for op.
func (e *Emulator) injected(op Op) bool {
	e.calls = append(e.calls, op)
	s, ok := e.faults[op]
	if !ok {
		return false
	}
	delete(e.faults, op)
	e.lastErr = s
	return true
}

// region resolves [p, p+size) to emulated memory, setting the last error
// when the range is not inside a single allocation.
func (e *Emulator) region(p Ptr, size int) ([]byte, bool) {
	region, ok := e.lookup(p, size)
	if !ok {
		e.lastErr = StatusInvalidValue
	}
	return region, ok
}

func (e *Emulator) lookup(p Ptr, size int) ([]byte, bool) {
	bases := make([]Ptr, 0, len(e.mem))
	for base := range e.mem {
		bases = append(bases, base)
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })

	i := sort.Search(len(bases), func(i int) bool { return bases[i] > p }) - 1
	if i < 0 {
		return nil, false
	}
	buf := e.mem[bases[i]]
	off := int(p - bases[i])
	if size < 0 || off+size > len(buf) {
		return nil, false
	}
	return buf[off : off+size], true
}
