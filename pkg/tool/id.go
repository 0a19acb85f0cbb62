package tool

import (
	"sync/atomic"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Sequence hands out unique, strictly increasing int64 identifiers.
// Sequences started from disjoint bases keep their id spaces disjoint
// for the lifetime of the process.
type Sequence struct {
	next atomic.Int64
}

func NewSequence(base int64) *Sequence {
	s := &Sequence{}
	s.next.Store(base)
	return s
}

func (s *Sequence) Next() int64 {
	return s.next.Add(1)
}
