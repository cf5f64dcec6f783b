package simulator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/me/schedview/pkg/model"
)

// ErrNoMemory is returned when no free block can hold a request.
var ErrNoMemory = errors.New("no suitable memory block found")

// MemoryManager hands out contiguous blocks first fit. The OS region
// [0, osSize) is never listed; the block list starts at osSize.
type MemoryManager struct {
	total  int
	os     int
	blocks []model.MemoryBlock
}

// NewMemoryManager creates a manager with one free block covering
// [osSize, totalSize).
func NewMemoryManager(totalSize, osSize int) *MemoryManager {
	m := &MemoryManager{total: totalSize, os: osSize}
	m.blocks = []model.MemoryBlock{{Start: osSize, Length: totalSize - osSize}}
	return m
}

// Allocate reserves size units in the first free block large enough and
// returns the start address. The block is split when larger than size.
func (m *MemoryManager) Allocate(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("allocate %d: size must be positive", size)
	}
	for i, b := range m.blocks {
		if b.IsUsed || b.Length < size {
			continue
		}
		m.blocks[i].IsUsed = true
		if b.Length > size {
			m.blocks[i].Length = size
			rest := model.MemoryBlock{Start: b.Start + size, Length: b.Length - size}
			m.blocks = slices.Insert(m.blocks, i+1, rest)
		}
		return b.Start, nil
	}
	return 0, fmt.Errorf("allocate %d: %w", size, ErrNoMemory)
}

// Free releases the used block starting at start and merges it with free
// neighbours. It reports whether such a block existed.
func (m *MemoryManager) Free(start int) bool {
	for i, b := range m.blocks {
		if b.Start == start && b.IsUsed {
			m.blocks[i].IsUsed = false
			m.merge()
			return true
		}
	}
	return false
}

func (m *MemoryManager) merge() {
	out := m.blocks[:0]
	for _, b := range m.blocks {
		if n := len(out); n > 0 && !out[n-1].IsUsed && !b.IsUsed {
			out[n-1].Length += b.Length
			continue
		}
		out = append(out, b)
	}
	m.blocks = out
}

// Snapshot returns the memory map as reported by GET /status.
func (m *MemoryManager) Snapshot() model.Memory {
	return model.Memory{TotalSize: m.total, OSSize: m.os, Blocks: slices.Clone(m.blocks)}
}
