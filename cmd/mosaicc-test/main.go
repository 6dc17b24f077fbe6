package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
	"libdb.so/hrt"
	"libdb.so/hserve"
)

var (
	httpAddr  = ":9100"
	width     = 64
	height    = 32
	dwellSecs = 10
	frameRPS  = 0.0
	verbose   = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.IntVar(&width, "width", width, "frame width in pixels")
	pflag.IntVar(&height, "height", height, "frame height in pixels")
	pflag.IntVar(&dwellSecs, "dwell-secs", dwellSecs, "dwell period advertised to clients")
	pflag.Float64Var(&frameRPS, "frame-rps", frameRPS, "limit /frame requests per second, 0 for unlimited")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	srv := &server{
		apps:   builtinApps(),
		width:  width,
		height: height,
		dwell:  time.Duration(dwellSecs) * time.Second,
		start:  time.Now(),
		logger: logger.With("component", "server"),
	}
	if frameRPS > 0 {
		srv.limiter = rate.NewLimiter(rate.Limit(frameRPS), 1)
	}

	httpLogger := httplog.NewLogger("mosaicc-test", httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(httpLogger))

	r.Get("/frame", srv.handleFrame)
	r.Get("/api/status", srv.handleStatus)
	r.Get("/preview/ws", srv.handlePreviewWS)

	r.Group(func(r chi.Router) {
		r.Use(hrt.Use(hrt.Opts{
			Encoder:     hrt.JSONEncoder,
			ErrorWriter: hrt.TextErrorWriter,
		}))
		r.Post("/api/displays", hrt.Wrap(srv.registerDisplay))
		r.Get("/api/displays", hrt.Wrap(srv.listDisplays))
	})

	logger.Info(
		"starting test server",
		"addr", httpAddr,
		"size", fmt.Sprintf("%dx%d", width, height),
		"apps", len(srv.apps))

	return hserve.ListenAndServe(ctx, httpAddr, r)
}
