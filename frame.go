package mosaicc

import (
	"fmt"
	"time"
)

// Payload is one response from the Mosaic server: the out-of-band metadata
// plus the raw RGB body. The body is frame_count frames of
// width*height*3 bytes each, concatenated in playback order.
type Payload struct {
	Width      int
	Height     int
	FrameCount int
	FrameDelay time.Duration
	Dwell      time.Duration
	Brightness uint8
	AppName    string
	Pixels     []byte
}

// FrameSet is the decoded, ordered frames of one payload. Each element is
// exactly width*height*3 bytes and aliases the payload body.
type FrameSet [][]byte

// DecodeFrames splits a payload body into per-frame buffers. The declared
// dimensions must match the display's fixed dimensions and the body length
// must match the declared geometry exactly; any violation is a FormatError.
// No I/O, no copying.
func DecodeFrames(p *Payload, wantW, wantH int) (FrameSet, error) {
	if p.Width != wantW || p.Height != wantH {
		return nil, &FormatError{
			Reason: "dimension-mismatch",
			Detail: fmt.Sprintf("server declared %dx%d, display is %dx%d", p.Width, p.Height, wantW, wantH),
		}
	}

	if p.FrameCount < 1 {
		return nil, &FormatError{
			Reason: "size-mismatch",
			Detail: fmt.Sprintf("invalid frame count %d", p.FrameCount),
		}
	}

	frameLen := p.Width * p.Height * 3
	if len(p.Pixels) != frameLen*p.FrameCount {
		return nil, &FormatError{
			Reason: "size-mismatch",
			Detail: fmt.Sprintf("got %d bytes, want %d for %d frame(s)", len(p.Pixels), frameLen*p.FrameCount, p.FrameCount),
		}
	}

	set := make(FrameSet, p.FrameCount)
	for i := range set {
		set[i] = p.Pixels[i*frameLen : (i+1)*frameLen]
	}
	return set, nil
}
