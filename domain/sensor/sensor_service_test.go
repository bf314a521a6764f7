package sensor

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

func sourceFor(t *testing.T, sources []stream.Source, topic string) stream.Source {
	t.Helper()
	for _, src := range sources {
		if src.Topic == topic {
			return src
		}
	}
	t.Fatalf("no source for %s", topic)
	return stream.Source{}
}

func newTestSensor(t *testing.T) (*SensorService, *zeromq.LocalClient) {
	t.Helper()
	logger := customlog.NewNopLogger()
	s := NewSensorService(config.DefaultSimulationConfig(), logger)
	bus := zeromq.NewLocalBus(logger)
	t.Cleanup(bus.Close)
	s.Register(bus)
	return s, bus.NewClient(nil)
}

func TestAlwaysOnStreams(t *testing.T) {
	s, _ := newTestSensor(t)
	sources := s.Sources()
	now := time.Now()

	v, ok := sourceFor(t, sources, wire.TopicImu).Sample(now)
	require.True(t, ok)
	imu := v.(*types.Imu)
	assert.Equal(t, gravity, imu.LinearAcceleration[2])
	assert.Equal(t, now.UnixNano(), imu.Timestamp)

	_, ok = sourceFor(t, sources, wire.TopicUltra).Sample(now)
	assert.True(t, ok)

	s.SetHeadTouch(3)
	v, ok = sourceFor(t, sources, wire.TopicHeadTouch).Sample(now)
	require.True(t, ok)
	assert.EqualValues(t, 3, v.(*types.HeadTouch).Data)
}

func TestOpenFlagsGateStreams(t *testing.T) {
	s, client := newTestSensor(t)
	sources := s.Sources()
	ctx := context.Background()
	now := time.Now()

	gated := []string{
		wire.TopicLaserScan, wire.TopicRgbdColorImage, wire.TopicRgbdDepthInfo,
		wire.TopicBinocularLeftLow, wire.TopicDepthImage,
	}
	for _, topic := range gated {
		_, ok := sourceFor(t, sources, topic).Sample(now)
		assert.False(t, ok, topic)
	}

	require.NoError(t, client.Call(ctx, wire.MsgSensorOpenLaserScan, nil, nil))
	require.NoError(t, client.Call(ctx, wire.MsgSensorOpenRgbd, nil, nil))
	require.NoError(t, client.Call(ctx, wire.MsgSensorOpenBinocular, nil, nil))
	assert.Equal(t, State{LaserScan: true, Rgbd: true, Binocular: true}, s.State())
	for _, topic := range gated {
		_, ok := sourceFor(t, sources, topic).Sample(now)
		assert.True(t, ok, topic)
	}

	require.NoError(t, client.Call(ctx, wire.MsgSensorCloseRgbd, nil, nil))
	_, ok := sourceFor(t, sources, wire.TopicRgbdColorImage).Sample(now)
	assert.False(t, ok)
	_, ok = sourceFor(t, sources, wire.TopicLaserScan).Sample(now)
	assert.True(t, ok)
}

func TestLaserScanSeesSquareRoom(t *testing.T) {
	s, _ := newTestSensor(t)
	scan := s.laserScan(time.Now()).(*types.LaserScan)

	require.Len(t, scan.Ranges, laserBeam)
	// Index 180 is straight ahead, index 225 the 45 degree corner.
	assert.InDelta(t, roomHalf, scan.Ranges[180], 1e-9)
	assert.InDelta(t, roomHalf*1.41421356, scan.Ranges[225], 1e-6)
}

func TestImages(t *testing.T) {
	s, _ := newTestSensor(t)
	now := time.Now()

	color := s.colorImage(now).(*types.Image)
	assert.Equal(t, "rgb8", color.Encoding)
	assert.Len(t, color.Data, int(color.Step*color.Height))

	depth := depthImage(now, "d", lowRes)
	assert.Equal(t, "16UC1", depth.Encoding)
	assert.Equal(t, uint16(depthMM), uint16(depth.Data[0])|uint16(depth.Data[1])<<8)

	c := s.compressed(now, "left", highRes).(*types.CompressedImage)
	assert.Equal(t, "jpeg", c.Format)
	img, err := jpeg.Decode(bytes.NewReader(c.Data))
	require.NoError(t, err)
	assert.Equal(t, highRes.w, img.Bounds().Dx())
	assert.Equal(t, highRes.h, img.Bounds().Dy())
}
