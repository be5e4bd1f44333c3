// Package memory implements the protected host allocator used for frame
// buffers. Every allocation is labelled and tracked until it is freed, so
// leaks and double frees show up as errors instead of silent corruption.
package memory

import (
	"errors"
	"math"
	"sort"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/nbody/internal/dynamo"
)

// ErrUnknownBuffer is returned when freeing a buffer the allocator does not
// own, including one that was already freed.
var ErrUnknownBuffer = errors.New("memory: buffer not allocated by this allocator")

// Allocator hands out Vec4 buffers and takes them back.
type Allocator interface {
	Vec4s(label string, n int) ([]dynamo.Vec4, error)
	Free(buf []dynamo.Vec4) error
}

type allocation struct {
	label string
	size  int64
}

// Stats is a snapshot of allocator usage.
type Stats struct {
	Live       int
	LiveBytes  int64
	Allocs     int
	Frees      int
	LimitBytes int64
}

// Host allocates frame buffers from the Go heap.
type Host struct {
	mu     sync.Mutex
	limit  int64
	used   int64
	allocs int
	frees  int
	live   map[*dynamo.Vec4]allocation
	logger zerolog.Logger
}

// NewHost returns an allocator capped at limit bytes. A limit of 0 means
// no cap.
func NewHost(limit int64) *Host {
	return &Host{
		limit:  limit,
		live:   make(map[*dynamo.Vec4]allocation),
		logger: log.Logger.With().Str("component", "memory").Logger(),
	}
}

// Vec4s returns a zeroed buffer of exactly n vectors. It never returns a
// nil buffer alongside a nil error.
func (h *Host) Vec4s(label string, n int) ([]dynamo.Vec4, error) {
	if n < 1 {
		return nil, dynamo.Fatalf(dynamo.KindResource, label, "too small memory amount (%d)", n)
	}
	if n > math.MaxInt/dynamo.Vec4Size {
		return nil, dynamo.Fatalf(dynamo.KindResource, label, "couldn't allocate memory: %d vectors overflows", n)
	}
	size := int64(n) * int64(dynamo.Vec4Size)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 && h.used+size > h.limit {
		return nil, dynamo.Fatalf(dynamo.KindResource, label,
			"couldn't allocate memory: need %d bytes, available %d", size, h.limit-h.used)
	}

	buf := make([]dynamo.Vec4, n)
	h.live[unsafe.SliceData(buf)] = allocation{label: label, size: size}
	h.used += size
	h.allocs++

	h.logger.Debug().Str("label", label).Int64("bytes", size).Msg("alloc")
	return buf, nil
}

// Free releases buf. Freeing a buffer twice returns ErrUnknownBuffer.
func (h *Host) Free(buf []dynamo.Vec4) error {
	if len(buf) == 0 {
		return ErrUnknownBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := unsafe.SliceData(buf)
	a, ok := h.live[key]
	if !ok {
		return ErrUnknownBuffer
	}
	delete(h.live, key)
	h.used -= a.size
	h.frees++

	h.logger.Debug().Str("label", a.label).Int64("bytes", a.size).Msg("free")
	return nil
}

// Live returns the number of buffers not yet freed.
func (h *Host) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// LiveLabels returns the labels of the live buffers, sorted.
func (h *Host) LiveLabels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	labels := make([]string, 0, len(h.live))
	for _, a := range h.live {
		labels = append(labels, a.label)
	}
	sort.Strings(labels)
	return labels
}

func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Stats{
		Live:       len(h.live),
		LiveBytes:  h.used,
		Allocs:     h.allocs,
		Frees:      h.frees,
		LimitBytes: h.limit,
	}
}

// Usage returns the fraction of the limit in use, or 0 without a limit.
func (h *Host) Usage() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit == 0 {
		return 0
	}
	return float64(h.used) / float64(h.limit)
}
