// Command magicdog-keyboard drives the robot from the keyboard: keys pick a
// gait, a trick or joystick axes, and a background loop repeats the joystick
// command every 10 ms.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flags "github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/magicdog/sdk/domain/simulator"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
)

type Options struct {
	Config  string `short:"c" long:"config" description:"client configuration file"`
	LocalIP string `long:"local-ip" description:"address of this host on the robot network"`
	Local   bool   `long:"local" description:"run against an in-process simulator"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.ClientConfig, error) {
	if path != "" {
		return config.LoadClientConfig(path)
	}
	cfg := config.DefaultClientConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func run(opts Options) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the UI, so log lines go to the log box and,
	// when configured, to a file.
	lines := newLineWriter(64)
	var out io.Writer = lines
	if cfg.Logging.LogPath != "" {
		if err := os.MkdirAll(cfg.Logging.LogPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.Logging.LogPath, "keyboard.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(lines, f)
	}
	log := customlog.NewWriterLogger(out, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var robotOpts []magicdog.Option
	if opts.Local {
		local, err := simulator.StartLocal(ctx, config.DefaultSimulationConfig(), log)
		if err != nil {
			return err
		}
		defer local.Close()
		robotOpts = append(robotOpts, magicdog.WithLocalBus(local.Bus))
	}

	robot := magicdog.NewRobot(cfg, log, robotOpts...)
	defer robot.Shutdown()

	localIP := opts.LocalIP
	if localIP == "" {
		localIP = cfg.Robot.LocalIP
	}
	if err := robot.Initialize(localIP); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := robot.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := robot.Disconnect(dctx); err != nil && !errors.Is(err, magicdog.ErrServiceNotReady) {
			fmt.Fprintf(os.Stderr, "disconnect failed: %v\n", err)
		}
	}()

	op := newOperator(robot.HighLevelMotionController(), log)
	if err := op.prepare(ctx, robot); err != nil {
		return err
	}
	return operate(ctx, op, lines.lines)
}

// operate runs the UI and the joystick sender until either stops.
func operate(ctx context.Context, op *operator, lines <-chan string) error {
	g, gctx := errgroup.WithContext(ctx)
	p := tea.NewProgram(newKeyboardModel(gctx, op, lines), tea.WithAltScreen())

	g.Go(func() error {
		return op.send(gctx)
	})
	g.Go(func() error {
		_, err := p.Run()
		if err != nil {
			return fmt.Errorf("keyboard UI failed: %w", err)
		}
		// Quitting the UI ends the sender.
		return errStopped
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) {
		return err
	}
	return nil
}

var errStopped = errors.New("operator stopped")
