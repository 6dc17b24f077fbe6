package mosaicc

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFaultPatternDeterministic(t *testing.T) {
	for _, cat := range []FaultCategory{FaultConnection, FaultFormat, FaultTimeout} {
		t.Run(cat.String(), func(t *testing.T) {
			first := FaultPattern(cat, 64, 32)
			second := FaultPattern(cat, 64, 32)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("pattern is not deterministic (-first +second):\n%s", diff)
			}
			if len(first) != 64*32*3 {
				t.Errorf("got %d bytes, want %d", len(first), 64*32*3)
			}
		})
	}
}

func TestFaultPatternsDistinct(t *testing.T) {
	cats := []FaultCategory{FaultConnection, FaultFormat, FaultTimeout}
	for i, a := range cats {
		for _, b := range cats[i+1:] {
			if cmp.Diff(FaultPattern(a, 16, 16), FaultPattern(b, 16, 16)) == "" {
				t.Errorf("%v and %v patterns are identical", a, b)
			}
		}
	}
}

func TestFaultPatternPixels(t *testing.T) {
	const w, h = 8, 8

	tests := []struct {
		cat     FaultCategory
		x, y    int
		r, g, b byte
	}{
		// Checkerboard in 2x2 cells: the top-left cell is lit red.
		{FaultConnection, 0, 0, 0xff, 0x00, 0x00},
		{FaultConnection, 1, 1, 0xff, 0x00, 0x00},
		{FaultConnection, 2, 0, 0x00, 0x00, 0x00},
		{FaultConnection, 0, 2, 0x00, 0x00, 0x00},
		{FaultConnection, 2, 2, 0xff, 0x00, 0x00},
		// Yellow bands on even rows.
		{FaultFormat, 3, 0, 0xff, 0xff, 0x00},
		{FaultFormat, 3, 1, 0x00, 0x00, 0x00},
		{FaultFormat, 3, 2, 0xff, 0xff, 0x00},
		// Magenta stripes on every fourth column.
		{FaultTimeout, 0, 5, 0xff, 0x00, 0xff},
		{FaultTimeout, 1, 5, 0x00, 0x00, 0x00},
		{FaultTimeout, 4, 5, 0xff, 0x00, 0xff},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%v at %d,%d", test.cat, test.x, test.y), func(t *testing.T) {
			buf := FaultPattern(test.cat, w, h)
			i := (test.y*w + test.x) * 3
			got := [3]byte{buf[i], buf[i+1], buf[i+2]}
			want := [3]byte{test.r, test.g, test.b}
			if got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", test.x, test.y, got, want)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FaultCategory
	}{
		{
			name: "fetch timeout",
			err:  &FetchError{Category: FaultTimeout, Err: context.DeadlineExceeded},
			want: FaultTimeout,
		},
		{
			name: "fetch network",
			err:  &FetchError{Category: FaultConnection, Err: fmt.Errorf("connection refused")},
			want: FaultConnection,
		},
		{
			name: "server status",
			err:  &FetchError{Category: FaultConnection, Status: 502, Err: fmt.Errorf("server returned 502 Bad Gateway")},
			want: FaultConnection,
		},
		{
			name: "format",
			err:  &FormatError{Reason: "size-mismatch", Detail: "got 5 bytes"},
			want: FaultFormat,
		},
		{
			name: "wrapped fetch error",
			err:  fmt.Errorf("fetch step: %w", &FetchError{Category: FaultTimeout}),
			want: FaultTimeout,
		},
		{
			name: "unknown error",
			err:  fmt.Errorf("something else"),
			want: FaultConnection,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Categorize(test.err); got != test.want {
				t.Errorf("Categorize = %v, want %v", got, test.want)
			}
		})
	}
}
