package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppsRenderWireLayout(t *testing.T) {
	sizes := []struct{ w, h int }{{64, 32}, {32, 16}, {8, 8}}

	for _, a := range builtinApps() {
		for _, size := range sizes {
			buf := a.render(size.w, size.h)
			want := size.w * size.h * 3 * a.frames
			if len(buf) != want {
				t.Errorf("%s at %dx%d: got %d bytes, want %d", a.name, size.w, size.h, len(buf), want)
			}
		}
	}
}

func TestAppsRenderDeterministic(t *testing.T) {
	for _, a := range builtinApps() {
		if diff := cmp.Diff(a.render(16, 8), a.render(16, 8)); diff != "" {
			t.Errorf("%s render is not deterministic (-first +second):\n%s", a.name, diff)
		}
	}
}

func TestScannerLightsOneColumnPerFrame(t *testing.T) {
	var scanner app
	for _, a := range builtinApps() {
		if a.name == "scanner" {
			scanner = a
		}
	}
	if scanner.name == "" {
		t.Fatal("no scanner app")
	}

	const w, h = 16, 4
	buf := scanner.render(w, h)
	frameLen := w * h * 3

	for f := 0; f < scanner.frames; f++ {
		lit := 0
		frame := buf[f*frameLen : (f+1)*frameLen]
		for i := 0; i < len(frame); i += 3 {
			if frame[i] != 0 || frame[i+1] != 0 || frame[i+2] != 0 {
				lit++
			}
		}
		if lit != h {
			t.Errorf("frame %d lights %d pixels, want one column of %d", f, lit, h)
		}
	}
}
