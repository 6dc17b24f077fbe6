package mosaicc

// Screen is a fixed-size RGB matrix display.
type Screen interface {
	// Size returns the physical pixel dimensions of the matrix.
	Size() (w, h int)
	// Render pushes one full frame to the matrix. buf must be exactly
	// w*h*3 bytes of RGB triplets, row-major, top-left origin.
	Render(buf []byte) error
	// SetBrightness sets the panel brightness from 0 (off) to 255 (full).
	SetBrightness(level uint8)
	// Power switches the panel output on or off.
	Power(on bool) error
	// Teardown blanks the panel and releases the device.
	Teardown() error
}
