package zeromq

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/processing"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

func registerVolume(s Server) {
	volume := 50
	var mu sync.Mutex
	s.RegisterHandlerFunc(wire.MsgAudioSetVolume, func(env *wire.Envelope) (interface{}, error) {
		var req wire.VolumeMessage
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		if req.Volume < 0 || req.Volume > 100 {
			return nil, types.Errorf(types.ErrorCodeServiceError, "volume %d out of range", req.Volume)
		}
		mu.Lock()
		volume = req.Volume
		mu.Unlock()
		return nil, nil
	})
	s.RegisterHandlerFunc(wire.MsgAudioGetVolume, func(*wire.Envelope) (interface{}, error) {
		mu.Lock()
		defer mu.Unlock()
		return wire.VolumeMessage{Volume: volume}, nil
	})
	s.RegisterRawHandler(wire.IdentLegCommand, func(data []byte) (interface{}, error) {
		cmd, err := wire.DecodeLegCommand(data)
		if err != nil {
			return nil, err
		}
		return wire.VersionResult{Version: "ts"}, nilIfZero(cmd.Timestamp)
	})
}

func nilIfZero(ts int64) error {
	if ts == 0 {
		return types.Errorf(types.ErrorCodeServiceError, "missing timestamp")
	}
	return nil
}

func TestDispatcherReplies(t *testing.T) {
	bus := NewLocalBus(customlog.NewNopLogger())
	registerVolume(bus)
	d := bus.dispatcher

	env, err := wire.NewRequest(wire.MsgAudioGetVolume, nil)
	require.NoError(t, err)
	raw, _ := json.Marshal(env)
	reply := d.Dispatch(raw)
	assert.True(t, reply.Status.OK())
	assert.Equal(t, env.RequestID, reply.RequestID)

	env, _ = wire.NewRequest("audio.sing", nil)
	raw, _ = json.Marshal(env)
	reply = d.Dispatch(raw)
	assert.Equal(t, wire.MsgTypeError, reply.Type)
	assert.Equal(t, types.ErrorCodeServiceError, reply.Status.Code)
	assert.Contains(t, reply.Status.Message, "unknown message type")

	reply = d.Dispatch([]byte{0xde, 0xad, 0xbe, 0xef, 'X', 'X', 'X', 'X'})
	assert.Equal(t, types.ErrorCodeServiceError, reply.Status.Code)

	env, _ = wire.NewRequest(wire.MsgAudioSetVolume, map[string]string{"volume": "loud"})
	raw, _ = json.Marshal(env)
	reply = d.Dispatch(raw)
	assert.Equal(t, types.ErrorCodeServiceError, reply.Status.Code, "bad payload is a service error")

	assert.Equal(t, 3, d.MessageTypes())
}

func TestLocalBusCallAndSend(t *testing.T) {
	bus := NewLocalBus(customlog.NewNopLogger())
	registerVolume(bus)
	client := bus.NewClient(func(string, []byte) {})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.Call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: 80}, nil))
	var vol wire.VolumeMessage
	require.NoError(t, client.Call(ctx, wire.MsgAudioGetVolume, nil, &vol))
	assert.Equal(t, 80, vol.Volume)

	err := client.Call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: 101}, nil)
	var se *types.StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, types.ErrorCodeServiceError, se.Code)

	cmd := types.LegJointCommand{Timestamp: 1}
	var res wire.VersionResult
	require.NoError(t, client.Send(ctx, wire.EncodeLegCommand(&cmd), &res))
	assert.Equal(t, "ts", res.Version)

	cmd.Timestamp = 0
	err = client.Send(ctx, wire.EncodeLegCommand(&cmd), nil)
	assert.ErrorIs(t, err, &types.StatusError{Code: types.ErrorCodeServiceError})
}

func TestLocalBusOfflineTimesOut(t *testing.T) {
	bus := NewLocalBus(customlog.NewNopLogger())
	registerVolume(bus)
	client := bus.NewClient(func(string, []byte) {})
	bus.SetOffline(true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.Call(ctx, wire.MsgAudioGetVolume, nil, nil)
	assert.ErrorIs(t, err, &types.StatusError{Code: types.ErrorCodeTimeout})

	require.NoError(t, client.Close())
	err = client.Call(context.Background(), wire.MsgAudioGetVolume, nil, nil)
	assert.ErrorIs(t, err, &types.StatusError{Code: types.ErrorCodeServiceNotReady})
}

func TestLocalBusSlowHandlerTimesOut(t *testing.T) {
	bus := NewLocalBus(customlog.NewNopLogger())
	release := make(chan struct{})
	defer close(release)
	bus.RegisterHandlerFunc(wire.MsgRobotConnect, func(*wire.Envelope) (interface{}, error) {
		<-release
		return nil, nil
	})
	client := bus.NewClient(func(string, []byte) {})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := client.Call(ctx, wire.MsgRobotConnect, nil, nil)
	assert.ErrorIs(t, err, &types.StatusError{Code: types.ErrorCodeTimeout})
}

func TestLocalBusPublishesToSubscribers(t *testing.T) {
	logger := customlog.NewNopLogger()
	bus := NewLocalBus(logger)

	var mu sync.Mutex
	got := map[string]int{}
	client := bus.NewClient(func(topic string, _ []byte) {
		mu.Lock()
		got[topic]++
		mu.Unlock()
	})

	reg := prometheus.NewRegistry()
	pub := NewStreamPublisher(bus, reg, logger)

	require.NoError(t, client.Subscribe(wire.TopicNavStatus))
	require.NoError(t, pub.Publish(wire.TopicNavStatus, types.NewNavStatus()))
	require.NoError(t, pub.Publish(wire.TopicOdometry, types.Odometry{}))
	require.NoError(t, client.Unsubscribe(wire.TopicNavStatus))
	require.NoError(t, pub.Publish(wire.TopicNavStatus, types.NewNavStatus()))

	assert.Equal(t, 1, got[wire.TopicNavStatus])
	assert.Equal(t, 0, got[wire.TopicOdometry])

	counts := pub.Counts()
	require.Len(t, counts, 2)
	assert.Equal(t, TopicCount{Topic: wire.TopicNavStatus, Frames: 2}, counts[0])

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.Error(t, pub.Publish(wire.TopicImu, "not an imu"))

	bus.Close()
	assert.ErrorIs(t, bus.PublishMessage(wire.TopicOdometry, nil), ErrServiceClosed)
}

func TestDirectorWrapperRoutesFrames(t *testing.T) {
	logger := customlog.NewNopLogger()
	registry := processing.NewTopicRegistry(logger)
	director := processing.NewMessageDirector(logger, registry, nil)
	director.Initialize(1, 1, 1)

	frames := make(chan string, 4)
	director.SetProcessor(func(msg *processing.Message) error {
		frames <- msg.Topic
		return nil
	})
	director.Start()
	defer director.Stop()

	bus := NewLocalBus(logger)
	client := bus.NewClient(NewDirectorWrapper(director, logger).Sink())
	require.NoError(t, client.Subscribe(wire.TopicHeadTouch))
	require.NoError(t, bus.PublishMessage(wire.TopicHeadTouch, []byte(`{"data":1}`)))

	select {
	case topic := <-frames:
		assert.Equal(t, wire.TopicHeadTouch, topic)
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}
}

// TestZeroMQRoundTrip exercises real sockets. It needs libzmq and free
// local ports, so it only runs when MAGICDOG_ZMQ_TEST is set.
func TestSocketChangesSubscribeEachTopicOnce(t *testing.T) {
	active := make(map[string]struct{})

	changes := socketChanges(active, []subscriptionOp{
		{topic: wire.TopicImu, subscribe: true},
		{topic: wire.TopicImu, subscribe: true},
		{topic: wire.TopicUltra, subscribe: false},
	})
	assert.Equal(t, []subscriptionOp{{topic: wire.TopicImu, subscribe: true}}, changes)

	// A replaced callback subscribes again; one unsubscribe must still clear the filter.
	assert.Empty(t, socketChanges(active, []subscriptionOp{{topic: wire.TopicImu, subscribe: true}}))
	changes = socketChanges(active, []subscriptionOp{
		{topic: wire.TopicImu, subscribe: false},
		{topic: wire.TopicImu, subscribe: false},
	})
	assert.Equal(t, []subscriptionOp{{topic: wire.TopicImu, subscribe: false}}, changes)
	assert.Empty(t, active)
}

func TestZeroMQRoundTrip(t *testing.T) {
	if os.Getenv("MAGICDOG_ZMQ_TEST") == "" {
		t.Skip("set MAGICDOG_ZMQ_TEST=1 to run the socket test")
	}
	logger := customlog.NewNopLogger()

	service, err := NewZeroMQService(&config.ZeroMQBootstrap{
		RequestBindAddress: "tcp://127.0.0.1:25555",
		PublishBindAddress: "tcp://127.0.0.1:25556",
	}, logger)
	require.NoError(t, err)
	registerVolume(service)
	require.NoError(t, service.Start())
	defer service.Stop()

	frames := make(chan []byte, 16)
	client, err := NewClient(ClientOptions{
		RequestAddress:   "tcp://127.0.0.1:25555",
		SubscribeAddress: "tcp://127.0.0.1:25556",
		RequestTimeout:   2 * time.Second,
	}, func(topic string, payload []byte) {
		if topic == wire.TopicImu {
			frames <- payload
		}
	}, logger)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: 33}, nil))
	var vol wire.VolumeMessage
	require.NoError(t, client.Call(ctx, wire.MsgAudioGetVolume, nil, &vol))
	assert.Equal(t, 33, vol.Volume)

	require.NoError(t, client.Subscribe(wire.TopicImu))
	pub := NewStreamPublisher(service, nil, logger)
	imu := types.Imu{Timestamp: 5, Temperature: 30}

	// PUB/SUB joins asynchronously; publish until the first frame arrives.
	deadline := time.After(3 * time.Second)
	for {
		require.NoError(t, pub.Publish(wire.TopicImu, imu))
		select {
		case payload := <-frames:
			got, err := wire.DecodeImu(payload)
			require.NoError(t, err)
			assert.Equal(t, imu, got)
			return
		case <-deadline:
			t.Fatal("no IMU frame received")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
