package simulator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/services"
)

func TestLocalSimulatorAnswersAndStreams(t *testing.T) {
	cfg := config.DefaultSimulationConfig()
	local, err := StartLocal(context.Background(), cfg, customlog.NewNopLogger())
	require.NoError(t, err)

	frames := make(chan string, 16)
	client := local.Bus.NewClient(func(topic string, _ []byte) {
		select {
		case frames <- topic:
		default:
		}
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var version wire.VersionResult
	require.NoError(t, client.Call(ctx, wire.MsgRobotVersion, nil, &version))
	assert.Equal(t, cfg.SDKVersion, version.Version)

	require.NoError(t, client.Subscribe(wire.TopicImu))
	select {
	case topic := <-frames:
		assert.Equal(t, wire.TopicImu, topic)
	case <-ctx.Done():
		t.Fatal("no imu frame received")
	}

	require.NoError(t, local.Close())
	assert.NoDirExists(t, local.dataDir)
}

func TestSourcesCoverEveryTopic(t *testing.T) {
	logger := customlog.NewNopLogger()
	voice, err := services.NewVoiceConfigService(filepath.Join(t.TempDir(), "voice.yaml"), logger)
	require.NoError(t, err)
	sim := New(config.DefaultSimulationConfig(), voice, nil, logger)

	topics := make(map[string]bool)
	for _, src := range sim.Sources() {
		topics[src.Topic] = true
	}
	for _, topic := range wire.Topics() {
		if topic == wire.TopicVoiceConfigUpdated {
			continue
		}
		assert.True(t, topics[topic], "no source for %s", topic)
	}
	assert.Equal(t, types.GaitPassive, sim.Motion.State().Gait)
}
