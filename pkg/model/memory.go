package model

import (
	"fmt"
	"slices"
)

// MemoryBlock is one extent of the memory map.
type MemoryBlock struct {
	Start  int  `json:"start"`
	Length int  `json:"length"`
	IsUsed bool `json:"isUsed"`
}

// End returns the first address past the block.
func (b MemoryBlock) End() int {
	return b.Start + b.Length
}

// Memory is the server's memory map.
type Memory struct {
	TotalSize int           `json:"totalSize"`
	OSSize    int           `json:"osSize"`
	Blocks    []MemoryBlock `json:"blocks"`
}

// Used returns the number of allocated units outside the OS region.
func (m Memory) Used() int {
	n := 0
	for _, b := range m.Blocks {
		if b.IsUsed {
			n += b.Length
		}
	}
	return n
}

// Free returns the number of unallocated units.
func (m Memory) Free() int {
	n := 0
	for _, b := range m.Blocks {
		if !b.IsUsed {
			n += b.Length
		}
	}
	return n
}

// Validate checks that blocks are ordered, non-overlapping and contiguous,
// and that they cover the address space. The OS region may be listed as a
// block or left implicit, so coverage starts at 0 or at OSSize.
func (m *Memory) Validate() error {
	if len(m.Blocks) == 0 {
		if m.TotalSize == 0 || m.TotalSize == m.OSSize {
			return nil
		}
		return &InvariantError{Rule: "memory-coverage", Detail: "no blocks for non-empty memory"}
	}
	first := m.Blocks[0].Start
	if first != 0 && first != m.OSSize {
		return &InvariantError{
			Rule:   "memory-coverage",
			Detail: fmt.Sprintf("first block starts at %d, want 0 or %d", first, m.OSSize),
		}
	}
	end := first
	for i, b := range m.Blocks {
		if b.Length <= 0 {
			return &InvariantError{Rule: "memory-blocks", Detail: fmt.Sprintf("block %d has length %d", i, b.Length)}
		}
		if b.Start != end {
			return &InvariantError{
				Rule:   "memory-blocks",
				Detail: fmt.Sprintf("block %d starts at %d, previous ends at %d", i, b.Start, end),
			}
		}
		end = b.End()
	}
	if end != m.TotalSize {
		return &InvariantError{
			Rule:   "memory-coverage",
			Detail: fmt.Sprintf("blocks end at %d, total size is %d", end, m.TotalSize),
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m Memory) Clone() Memory {
	if m.Blocks != nil {
		m.Blocks = slices.Clone(m.Blocks)
	}
	return m
}
