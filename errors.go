package iconkit

import (
	"fmt"
	"math"

	"github.com/esimov/iconkit/svgmark"
)

// MalformedSourceError is returned when an icon's markup has no svg envelope.
type MalformedSourceError = svgmark.MalformedSourceError

// DecodeError reports that an intermediate image could not be decoded.
// It is fatal to the variant being produced.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that the final encoding step failed or produced no bytes.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("encode %s: empty output", e.Format)
	}
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// UnsupportedDimensionError is returned before any work starts when a
// requested width, height or size is not a positive finite number.
type UnsupportedDimensionError struct {
	Name  string
	Value float64
}

func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("unsupported %s: %v", e.Name, e.Value)
}

func checkDimension(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &UnsupportedDimensionError{Name: name, Value: v}
	}
	return nil
}
