package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"dev.acmcsuf.com/mosaicc"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

var (
	configPath = "mosaicc.yaml"
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "path to the YAML configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

// exitFatalInit is the exit status when the display hardware cannot be
// brought up. A matrix that won't initialize can't show recovery feedback,
// so supervisors need to tell this apart from ordinary failures.
const exitFatalInit = 2

type fatalInitError struct{ err error }

func (e *fatalInitError) Error() string {
	return fmt.Sprintf("display hardware unusable: %v", e.err)
}

func (e *fatalInitError) Unwrap() error { return e.err }

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
		var fatalErr *fatalInitError
		if errors.As(err, &fatalErr) {
			log.Print(err)
			os.Exit(exitFatalInit)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	screen, err := newHub75Screen(cfg, logger.With("component", "screen"))
	if err != nil {
		return &fatalInitError{err}
	}

	source := mosaicc.NewHTTPSource(mosaicc.HTTPSourceOpts{
		ServerURL:    cfg.ServerURL,
		FetchTimeout: cfg.fetchTimeout(),
		Logger:       logger.With("component", "source"),
	})

	client, err := mosaicc.New(mosaicc.Opts{
		Source:         source,
		Screen:         screen,
		Logger:         logger.With("component", "client"),
		DisplayID:      cfg.DisplayID,
		DisplayName:    cfg.DisplayName,
		ConnectTimeout: cfg.connectTimeout(),
		RetryDelay:     cfg.retryDelay(),
		MaxAttempts:    cfg.MaxRetryAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %v", err)
	}

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return client.Run(ctx)
	})

	errg.Go(func() error {
		logger.Info(
			"starting local status server",
			"addr", cfg.StatusAddr)

		return hserve.ListenAndServe(ctx, cfg.StatusAddr, newStatusHandler(client))
	})

	return errg.Wait()
}
