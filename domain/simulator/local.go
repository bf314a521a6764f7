package simulator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
	"github.com/magicdog/sdk/services"
)

// Local is a simulator running in this process behind a LocalBus.
type Local struct {
	Bus *zeromq.LocalBus
	Sim *Simulator
	Pub *zeromq.StreamPublisher

	dataDir string
	cancel  context.CancelFunc
	done    chan error
}

// StartLocal starts a simulator on a fresh LocalBus. The voice configuration
// lives in a temporary directory removed by Close.
func StartLocal(ctx context.Context, cfg config.SimulationConfig, logger customlog.Logger) (*Local, error) {
	dataDir, err := os.MkdirTemp("", "magicdog-sim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	voice, err := services.NewVoiceConfigService(filepath.Join(dataDir, "voice_config.yaml"), logger)
	if err != nil {
		os.RemoveAll(dataDir)
		return nil, fmt.Errorf("voice configuration: %w", err)
	}

	bus := zeromq.NewLocalBus(logger)
	sim := New(cfg, voice, nil, logger)
	sim.Register(bus)

	runCtx, cancel := context.WithCancel(ctx)
	l := &Local{
		Bus:     bus,
		Sim:     sim,
		Pub:     zeromq.NewStreamPublisher(bus, nil, logger),
		dataDir: dataDir,
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() {
		l.done <- sim.Run(runCtx, l.Pub)
	}()
	return l, nil
}

// Close stops the streams, detaches every client and removes the data directory.
func (l *Local) Close() error {
	l.cancel()
	err := <-l.done
	l.Bus.Close()
	os.RemoveAll(l.dataDir)
	return err
}
