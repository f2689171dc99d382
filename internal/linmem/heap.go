// Package linmem implements a raw allocator over a WebAssembly linear memory.
//
// The memory belongs to a minimal module instantiated with wazero, so every
// buffer the reference runtime hands out lives outside the Go heap and is
// addressed by a 32-bit offset, the way a guest runtime's malloc results are.
// Offset 0 is never returned and serves as the null pointer.
//
// A Heap performs no locking. The runtime that owns it serializes access.
package linmem

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	// PageSize is the WebAssembly page size.
	PageSize = 65536

	// MaxPages keeps the memory size representable as a uint32 byte count.
	MaxPages = 65535

	// DefaultAlign is used when Alloc is called with align 0.
	DefaultAlign = 8

	// reserved keeps offset 0 (and its neighbourhood) out of the free list.
	reserved = 16
)

var (
	// ErrOutOfMemory reports that the memory could not grow enough.
	ErrOutOfMemory = errors.New("linmem: out of memory")

	// ErrInvalidFree reports a Free of a pointer that is not live.
	ErrInvalidFree = errors.New("linmem: free of pointer not allocated by this heap")

	// ErrOutOfBounds reports an access outside a live allocation.
	ErrOutOfBounds = errors.New("linmem: access out of bounds")

	// ErrClosed reports use of a closed heap.
	ErrClosed = errors.New("linmem: heap closed")
)

// Stats counts allocator activity.
type Stats struct {
	Allocs    uint64
	Frees     uint64
	Live      int
	LiveBytes uint64
	Pages     uint32
}

type span struct {
	off, end uint32
}

// Heap is a first-fit, coalescing allocator over a wazero memory.
type Heap struct {
	rt   wazero.Runtime
	mod  api.Module
	mem  api.Memory
	free []span
	live map[uint32]uint32
	st   Stats
}

// New instantiates a memory of the given initial page count and returns a
// heap managing it. pages 0 selects one page.
func New(ctx context.Context, pages uint32) (*Heap, error) {
	if pages == 0 {
		pages = 1
	}
	if pages > MaxPages {
		return nil, fmt.Errorf("linmem: %d pages exceeds the %d page limit", pages, MaxPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	mod, err := rt.Instantiate(ctx, memoryModule(pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("linmem: instantiate memory module: %w", err)
	}
	mem := mod.Memory()
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.New("linmem: module has no memory")
	}

	h := &Heap{
		rt:   rt,
		mod:  mod,
		mem:  mem,
		live: make(map[uint32]uint32),
	}
	h.free = []span{{off: reserved, end: mem.Size()}}
	return h, nil
}

// Close releases the wazero runtime. Outstanding allocations are discarded.
func (h *Heap) Close(ctx context.Context) error {
	if h.rt == nil {
		return nil
	}
	err := h.rt.Close(ctx)
	h.rt, h.mod, h.mem = nil, nil, nil
	h.free, h.live = nil, nil
	return err
}

// Alloc reserves size bytes aligned to align (a power of two) and returns
// the offset. A zero size still yields a unique, non-null pointer.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if h.mem == nil {
		return 0, ErrClosed
	}
	if align == 0 {
		align = DefaultAlign
	}
	if align&(align-1) != 0 {
		return 0, fmt.Errorf("linmem: alignment %d is not a power of two", align)
	}
	if size == 0 {
		size = 1
	}

	for {
		if ptr, ok := h.carve(size, align); ok {
			h.live[ptr] = size
			h.st.Allocs++
			h.st.LiveBytes += uint64(size)
			return ptr, nil
		}
		if err := h.grow(size + align); err != nil {
			return 0, err
		}
	}
}

func (h *Heap) carve(size, align uint32) (uint32, bool) {
	for i, s := range h.free {
		start := alignUp(s.off, align)
		if start < s.off || uint64(start)+uint64(size) > uint64(s.end) {
			continue
		}
		end := start + size
		var repl []span
		if start > s.off {
			repl = append(repl, span{off: s.off, end: start})
		}
		if end < s.end {
			repl = append(repl, span{off: end, end: s.end})
		}
		h.free = append(h.free[:i], append(repl, h.free[i+1:]...)...)
		return start, true
	}
	return 0, false
}

func (h *Heap) grow(need uint32) error {
	pages := (uint64(need) + PageSize - 1) / PageSize
	oldSize := h.mem.Size()
	if uint64(oldSize)/PageSize+pages > MaxPages {
		return ErrOutOfMemory
	}
	if _, ok := h.mem.Grow(uint32(pages)); !ok {
		return ErrOutOfMemory
	}
	h.insert(span{off: oldSize, end: h.mem.Size()})
	return nil
}

// Free returns the allocation at ptr to the heap.
func (h *Heap) Free(ptr uint32) error {
	if h.mem == nil {
		return ErrClosed
	}
	size, ok := h.live[ptr]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrInvalidFree, ptr)
	}
	delete(h.live, ptr)
	h.st.Frees++
	h.st.LiveBytes -= uint64(size)
	h.insert(span{off: ptr, end: ptr + size})
	return nil
}

// insert adds s to the sorted free list and merges adjacent spans.
func (h *Heap) insert(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].off >= s.off })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end == h.free[i+1].off {
		h.free[i].end = h.free[i+1].end
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].end == h.free[i].off {
		h.free[i-1].end = h.free[i].end
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// SizeOf reports the size of the live allocation at ptr.
func (h *Heap) SizeOf(ptr uint32) (uint32, bool) {
	size, ok := h.live[ptr]
	return size, ok
}

// Write copies data into the live allocation starting at ptr.
func (h *Heap) Write(ptr uint32, data []byte) error {
	if err := h.check(ptr, uint32(len(data))); err != nil {
		return err
	}
	if !h.mem.Write(ptr, data) {
		return fmt.Errorf("%w: write %d bytes at 0x%x", ErrOutOfBounds, len(data), ptr)
	}
	return nil
}

// Read returns a copy of n bytes of the live allocation at ptr.
func (h *Heap) Read(ptr, n uint32) ([]byte, error) {
	if err := h.check(ptr, n); err != nil {
		return nil, err
	}
	view, ok := h.mem.Read(ptr, n)
	if !ok {
		return nil, fmt.Errorf("%w: read %d bytes at 0x%x", ErrOutOfBounds, n, ptr)
	}
	out := make([]byte, n)
	copy(out, view)
	return out, nil
}

// ReadUint32 reads a little-endian word at byte offset off of the live
// allocation at ptr.
func (h *Heap) ReadUint32(ptr, off uint32) (uint32, error) {
	size, ok := h.live[ptr]
	if !ok || uint64(off)+4 > uint64(size) {
		return 0, fmt.Errorf("%w: word at 0x%x+%d", ErrOutOfBounds, ptr, off)
	}
	v, ok := h.mem.ReadUint32Le(ptr + off)
	if !ok {
		return 0, fmt.Errorf("%w: word at 0x%x+%d", ErrOutOfBounds, ptr, off)
	}
	return v, nil
}

func (h *Heap) check(ptr, n uint32) error {
	if h.mem == nil {
		return ErrClosed
	}
	size, ok := h.live[ptr]
	if !ok || n > size {
		return fmt.Errorf("%w: %d bytes at 0x%x", ErrOutOfBounds, n, ptr)
	}
	return nil
}

// Stats returns a snapshot of the allocator counters.
func (h *Heap) Stats() Stats {
	st := h.st
	st.Live = len(h.live)
	if h.mem != nil {
		st.Pages = h.mem.Size() / PageSize
	}
	return st
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
