// Command inkdraw runs on the badge: the drawing app by default, or with
// -app one of the screenshot utility (screenshot), the image viewer (image)
// or the name badge (badge).
//
// Hardware setup (Badger 2040 pinout, see internal/config for the
// defaults):
//
//	Panel      GPIO
//	DC         GPIO20
//	RST        GPIO21
//	BUSY       GPIO26
//	CLK/MOSI   SPI0
//
//	Buttons    A=GPIO12 B=GPIO13 C=GPIO14 UP=GPIO15 DOWN=GPIO11, LED=GPIO25
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/inkdraw"
	"github.com/example/inkdraw/board"
	"github.com/example/inkdraw/internal/config"
	inklog "github.com/example/inkdraw/internal/log"
	"github.com/example/inkdraw/store"
)

var (
	configPath = flag.String("config", "/etc/inkdraw.yaml", "Configuration file (missing file = defaults)")
	appName    = flag.String("app", "draw", "App to run: draw, screenshot, image, badge")
)

// app is what the poll loop drives.
type app interface {
	Start() error
	Poll(ctx context.Context) (bool, error)
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		inklog.L().Error("inkdraw stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	switch *appName {
	case "draw", "screenshot", "image", "badge":
	default:
		return fmt.Errorf("unknown app %q", *appName)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := inklog.Init(inklog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Boot:      uuid.NewString(),
	})
	logger.Info("starting", slog.String("app", *appName), slog.String("config", *configPath))

	b, err := board.Open(cfg, inklog.WithComponent("board"))
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("close board", slog.Any("err", err))
		}
	}()

	st := store.Open(cfg.Storage.Root, &store.Options{
		ImagesDir:       cfg.Storage.ImagesDir,
		BadgesDir:       cfg.Storage.BadgesDir,
		StateFile:       cfg.Storage.StateFile,
		ViewerStateFile: cfg.Storage.ViewerStateFile,
		Logger:          logger,
	})
	opts := &inkdraw.Options{
		Step:           cfg.Canvas.Step,
		DefaultBrush:   cfg.Canvas.DefaultBrush,
		BannerDuration: cfg.Canvas.BannerDuration,
		Logger:         logger,
	}
	if b.LED != nil {
		opts.LED = b.LED
	}

	var a app
	switch *appName {
	case "draw":
		a = inkdraw.New(b.Panel, b.Buttons, st, opts)
	case "screenshot":
		a = inkdraw.NewScreenshotter(b.Panel, b.Buttons, st, opts)
	case "image":
		a = inkdraw.NewViewer(b.Panel, b.Buttons, st, opts)
	case "badge":
		a = inkdraw.NewBadge(b.Panel, st, opts)
	}
	if err := a.Start(); err != nil {
		return fmt.Errorf("initial draw: %w", err)
	}
	return loop(ctx, a, cfg.Canvas.PollInterval, inklog.WithOperation(logger, "poll"))
}

// loop polls a until ctx is done. Display errors are logged and the loop
// carries on; the next full refresh usually recovers the panel.
func loop(ctx context.Context, a app, every time.Duration, log *slog.Logger) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for ctx.Err() == nil {
		if _, err := a.Poll(ctx); err != nil {
			if errors.Is(err, inkdraw.ErrRefreshInFlight) {
				return err
			}
			log.Error("poll", slog.Any("err", err))
		}
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	log.Info("shutting down")
	return nil
}
