// Command magicdog-sim runs the robot simulator: the ZeroMQ request and
// publish endpoints the SDK talks to, plus an HTTP API for inspection.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/magicdog/sdk/domain/simulator"
	"github.com/magicdog/sdk/pkg/api"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
	"github.com/magicdog/sdk/services"
)

type options struct {
	ConfigDir string `short:"c" long:"config-dir" default:"./config" description:"directory holding sim_config.yaml"`
	HTTPPort  int    `short:"p" long:"port" description:"HTTP port, overrides server.http_port"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.LoadBootstrapConfig(opts.ConfigDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if opts.HTTPPort > 0 {
		cfg.Server.HTTPPort = opts.HTTPPort
	}

	log, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath, "magicdog-sim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatalf("Simulator failed: %v", err)
	}
	log.Infof("Simulator exited properly")
}

func run(cfg *config.BootstrapConfig, log customlog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	voice, err := services.NewVoiceConfigService(cfg.VoiceConfigPath(), log)
	if err != nil {
		return fmt.Errorf("voice configuration: %w", err)
	}

	zmqService, err := zeromq.NewZeroMQService(&cfg.ZeroMQ, log)
	if err != nil {
		return fmt.Errorf("zeromq: %w", err)
	}
	sim := simulator.New(cfg.Simulation, voice, reg, log)
	sim.Register(zmqService)
	if err := zmqService.Start(); err != nil {
		return fmt.Errorf("zeromq: %w", err)
	}
	defer zmqService.Stop()
	pub := zeromq.NewStreamPublisher(zmqService, reg, log)

	app := fiber.New(fiber.Config{
		AppName:               "MagicDog Simulator",
		ErrorHandler:          api.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(logger.New())
	app.Use(recover.New())
	api.RegisterRoutes(app, sim, pub, reg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sim.Run(ctx, pub)
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		log.Infof("HTTP server starting on %s", addr)
		if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Infof("Shutting down simulator...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	log.Infof("Simulator running (requests %s, streams %s)", cfg.ZeroMQ.RequestBindAddress, cfg.ZeroMQ.PublishBindAddress)
	return g.Wait()
}
