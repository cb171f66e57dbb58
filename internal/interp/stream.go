package interp

import (
	"errors"
	"math/big"
)

// ErrStreamEnd is returned by Stream.Next once a public/private input
// stream is exhausted.
var ErrStreamEnd = errors.New("input stream exhausted")

// Stream is a finite, lazy sequence of field/ring elements: the source
// behind a public_in/private_in directive (spec.md §4.D "Stream
// semantics"). A circuit run supplies one Stream per declared type for
// public inputs, and one for private (witness) inputs.
type Stream interface {
	Next() (*big.Int, error)
}

// SliceStream is a Stream backed by an in-memory slice, for tests and for
// small reference-backend runs.
type SliceStream struct {
	values []*big.Int
	pos    int
}

func NewSliceStream(values []*big.Int) *SliceStream {
	return &SliceStream{values: values}
}

func (s *SliceStream) Next() (*big.Int, error) {
	if s.pos >= len(s.values) {
		return nil, ErrStreamEnd
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}
