// Command magicdog runs the SDK example programs against a robot, or against
// an in-process simulator with --local.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/magicdog/sdk/domain/simulator"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
)

type Options struct {
	Config  string `short:"c" long:"config" description:"client configuration file"`
	LocalIP string `long:"local-ip" description:"address of this host on the robot network"`
	Local   bool   `long:"local" description:"run against an in-process simulator"`

	Audio       AudioCommand       `command:"audio" description:"Volume, TTS playback and voice configuration"`
	HighLevel   HighLevelCommand   `command:"highlevel" alias:"hl" description:"Gaits, tricks and joystick motion"`
	LowLevel    LowLevelCommand    `command:"lowlevel" alias:"ll" description:"Joint-level leg control at 500 Hz"`
	Sensor      SensorCommand      `command:"sensor" description:"Open the sensors and print their streams"`
	Slam        SlamCommand        `command:"slam" description:"Build, save and inspect maps"`
	Navigation  NavigationCommand  `command:"navigation" alias:"nav" description:"Localize and navigate to a target"`
	Monitor     MonitorCommand     `command:"monitor" description:"Print battery state and faults"`
	StructCheck StructCheckCommand `command:"structcheck" description:"Round-trip every SDK value type"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "MagicDog SDK examples"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.ClientConfig, error) {
	if opts.Config != "" {
		return config.LoadClientConfig(opts.Config)
	}
	cfg := config.DefaultClientConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// session is a connected robot plus, with --local, the simulator behind it.
type session struct {
	robot *magicdog.Robot
	log   customlog.Logger
	local *simulator.Local
}

// openSession runs the common prologue of every example: Initialize then Connect.
func openSession(ctx context.Context, name string, tune func(*config.SimulationConfig)) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s := &session{log: log}
	var robotOpts []magicdog.Option
	if opts.Local {
		simCfg := config.DefaultSimulationConfig()
		if tune != nil {
			tune(&simCfg)
		}
		s.local, err = simulator.StartLocal(ctx, simCfg, log)
		if err != nil {
			return nil, err
		}
		robotOpts = append(robotOpts, magicdog.WithLocalBus(s.local.Bus))
		log.Infof("Using in-process simulator")
	}
	s.robot = magicdog.NewRobot(cfg, log, robotOpts...)

	localIP := opts.LocalIP
	if localIP == "" {
		localIP = cfg.Robot.LocalIP
	}
	if err := s.robot.Initialize(localIP); err != nil {
		s.Close()
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	if err := s.robot.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	log.Infof("Connected, SDK version %s", s.robot.SDKVersion())
	return s, nil
}

// Close disconnects and shuts the robot down.
func (s *session) Close() {
	if s.robot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.robot.Disconnect(ctx); err != nil && !errors.Is(err, magicdog.ErrServiceNotReady) {
			s.log.Warnf("Disconnect failed: %v", err)
		}
		cancel()
		s.robot.Shutdown()
	}
	if s.local != nil {
		if err := s.local.Close(); err != nil {
			s.log.Warnf("Simulator stopped with error: %v", err)
		}
	}
}

// signalContext ends on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
