package main

import (
	"math"
	"time"
)

// app is one locally generated content source. pixel returns the color at
// a coordinate within a frame; render lays the frames out in the wire
// format: RGB triplets, row-major, frames concatenated in order.
type app struct {
	name   string
	frames int
	delay  time.Duration
	pixel  func(frame, x, y, w, h int) (r, g, b byte)
}

func (a app) render(w, h int) []byte {
	buf := make([]byte, w*h*3*a.frames)
	i := 0
	for f := 0; f < a.frames; f++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b := a.pixel(f, x, y, w, h)
				buf[i] = r
				buf[i+1] = g
				buf[i+2] = b
				i += 3
			}
		}
	}
	return buf
}

func builtinApps() []app {
	return []app{
		{
			name:   "rainbow",
			frames: 24,
			delay:  80 * time.Millisecond,
			pixel: func(f, x, y, w, h int) (byte, byte, byte) {
				hue := float64((x+f*2)%w) / float64(w) * 360
				return hsv(hue)
			},
		},
		{
			name:   "scanner",
			frames: 16,
			delay:  60 * time.Millisecond,
			pixel: func(f, x, y, w, h int) (byte, byte, byte) {
				if x == f*w/16 {
					return 0x00, 0xff, 0x40
				}
				return 0x00, 0x00, 0x00
			},
		},
		{
			name:   "dusk",
			frames: 1,
			delay:  100 * time.Millisecond,
			pixel: func(f, x, y, w, h int) (byte, byte, byte) {
				fade := float64(h-y) / float64(h)
				return byte(0x40 * fade), byte(0x20 * fade), byte(0x80 * fade)
			},
		},
	}
}

// hsv converts a hue in degrees to RGB at full saturation and value.
func hsv(hue float64) (byte, byte, byte) {
	hp := math.Mod(hue, 360) / 60
	xv := 1 - math.Abs(math.Mod(hp, 2)-1)

	var r, g, b float64
	switch {
	case hp < 1:
		r, g = 1, xv
	case hp < 2:
		r, g = xv, 1
	case hp < 3:
		g, b = 1, xv
	case hp < 4:
		g, b = xv, 1
	case hp < 5:
		r, b = xv, 1
	default:
		r, b = 1, xv
	}

	return byte(r * 0xff), byte(g * 0xff), byte(b * 0xff)
}
