package mosaicc

import (
	"errors"
	"fmt"
)

// FaultCategory classifies a recoverable fault. It selects both the retry
// schedule and the diagnostic pattern shown on the panel, so an operator
// can tell fault types apart without console access.
type FaultCategory int

const (
	// FaultConnection covers unreachable servers, transport errors and
	// server-side failure statuses.
	FaultConnection FaultCategory = iota
	// FaultFormat covers structural violations in a fetched payload.
	FaultFormat
	// FaultTimeout covers fetches that exceeded their deadline.
	FaultTimeout
)

func (c FaultCategory) String() string {
	switch c {
	case FaultConnection:
		return "connection"
	case FaultFormat:
		return "format"
	case FaultTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("FaultCategory(%d)", int(c))
	}
}

// FetchError is a failed fetch or connect attempt.
type FetchError struct {
	Category FaultCategory
	// Status is the HTTP status for server-side failures, 0 otherwise.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed (%s, status %d): %v", e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError is a structural violation in a fetched payload.
type FormatError struct {
	Reason string // "dimension-mismatch" or "size-mismatch"
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad payload (%s): %s", e.Reason, e.Detail)
}

// Categorize maps an error from the fetch+decode path to the fault category
// whose pattern should be shown. Unknown errors count as connection faults.
func Categorize(err error) FaultCategory {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Category
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return FaultFormat
	}
	return FaultConnection
}

// FaultPattern returns the diagnostic pattern for a fault category on a
// w by h matrix. Deterministic per category, pairwise distinct:
//
//   - connection: red/black checkerboard in 2x2 pixel cells
//   - format: yellow/black horizontal bands, alternating by row
//   - timeout: magenta/black vertical stripes, every fourth column lit
func FaultPattern(cat FaultCategory, w, h int) []byte {
	buf := make([]byte, w*h*3)

	switch cat {
	case FaultConnection:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if (x/2+y/2)%2 == 0 {
					setRGB(buf, w, x, y, 0xff, 0x00, 0x00)
				}
			}
		}

	case FaultFormat:
		for y := 0; y < h; y += 2 {
			for x := 0; x < w; x++ {
				setRGB(buf, w, x, y, 0xff, 0xff, 0x00)
			}
		}

	case FaultTimeout:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x += 4 {
				setRGB(buf, w, x, y, 0xff, 0x00, 0xff)
			}
		}
	}

	return buf
}

func setRGB(buf []byte, w, x, y int, r, g, b byte) {
	i := (y*w + x) * 3
	buf[i] = r
	buf[i+1] = g
	buf[i+2] = b
}
