package main

import (
	"fmt"
	"image/color"
	"log/slog"

	"dev.acmcsuf.com/mosaicc"
	rgbmatrix "github.com/mcuadros/go-rpi-rgb-led-matrix"
)

// hub75Screen drives a chain of HUB75 panels through the rpi-rgb-led-matrix
// binding. Brightness is applied in software before pixels are pushed, so
// server-driven brightness changes take effect without reopening the
// device.
type hub75Screen struct {
	matrix rgbmatrix.Matrix
	logger *slog.Logger

	width  int
	height int
	level  uint8
	on     bool
}

var _ mosaicc.Screen = (*hub75Screen)(nil)

func newHub75Screen(cfg Config, logger *slog.Logger) (*hub75Screen, error) {
	hw := rgbmatrix.DefaultConfig
	hw.Rows = cfg.Height / cfg.Matrix.Parallel
	hw.Cols = cfg.Width / cfg.Matrix.ChainLength
	hw.ChainLength = cfg.Matrix.ChainLength
	hw.Parallel = cfg.Matrix.Parallel
	hw.PWMBits = cfg.Matrix.PWMBits
	hw.HardwareMapping = cfg.Matrix.HardwareMapping
	hw.DisableHardwarePulsing = cfg.Matrix.DisableHardwarePulsing

	m, err := rgbmatrix.NewRGBLedMatrix(&hw)
	if err != nil {
		return nil, fmt.Errorf("failed to open RGB matrix: %w", err)
	}

	w, h := m.Geometry()
	if w != cfg.Width || h != cfg.Height {
		m.Close()
		return nil, fmt.Errorf("matrix geometry is %dx%d, config wants %dx%d", w, h, cfg.Width, cfg.Height)
	}

	logger.Info(
		"matrix initialized",
		"size", fmt.Sprintf("%dx%d", w, h),
		"hardware_mapping", cfg.Matrix.HardwareMapping)

	return &hub75Screen{
		matrix: m,
		logger: logger,
		width:  w,
		height: h,
		level:  uint8(cfg.Brightness),
		on:     true,
	}, nil
}

func (s *hub75Screen) Size() (int, int) { return s.width, s.height }

func (s *hub75Screen) Render(buf []byte) error {
	if len(buf) != s.width*s.height*3 {
		return fmt.Errorf("bad frame size: got %d bytes, want %d", len(buf), s.width*s.height*3)
	}
	if !s.on {
		return nil
	}

	scale := uint32(s.level)
	for i := 0; i < len(buf); i += 3 {
		s.matrix.Set(i/3, color.RGBA{
			R: uint8(uint32(buf[i]) * scale / 0xff),
			G: uint8(uint32(buf[i+1]) * scale / 0xff),
			B: uint8(uint32(buf[i+2]) * scale / 0xff),
			A: 0xff,
		})
	}
	return s.matrix.Render()
}

func (s *hub75Screen) SetBrightness(level uint8) {
	if level != s.level {
		s.logger.Debug(
			"brightness changed",
			"level", level)
	}
	s.level = level
}

func (s *hub75Screen) Power(on bool) error {
	s.on = on
	if !on {
		return s.blank()
	}
	return nil
}

func (s *hub75Screen) blank() error {
	for i := 0; i < s.width*s.height; i++ {
		s.matrix.Set(i, color.Black)
	}
	return s.matrix.Render()
}

func (s *hub75Screen) Teardown() error {
	if err := s.blank(); err != nil {
		s.logger.Warn(
			"failed to blank matrix",
			"error", err)
	}
	return s.matrix.Close()
}
