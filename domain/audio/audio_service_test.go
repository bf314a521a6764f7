package audio

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
	"github.com/magicdog/sdk/services"
)

func newTestAudio(t *testing.T) (*AudioService, *zeromq.LocalClient) {
	t.Helper()
	logger := customlog.NewNopLogger()
	voice, err := services.NewVoiceConfigService(filepath.Join(t.TempDir(), "voice.yaml"), logger)
	require.NoError(t, err)

	s := NewAudioService(config.DefaultSimulationConfig(), voice, logger)
	bus := zeromq.NewLocalBus(logger)
	t.Cleanup(bus.Close)
	s.Register(bus)
	return s, bus.NewClient(nil)
}

func TestVolumeRange(t *testing.T) {
	s, client := newTestAudio(t)
	ctx := context.Background()

	require.NoError(t, client.Call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: 80}, nil))
	var got wire.VolumeMessage
	require.NoError(t, client.Call(ctx, wire.MsgAudioGetVolume, nil, &got))
	assert.Equal(t, 80, got.Volume)

	err := client.Call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: 101}, nil)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)
	assert.Error(t, s.SetVolume(-1))
	assert.Equal(t, 80, s.Volume())
}

func TestPlayAndStopOverBus(t *testing.T) {
	s, client := newTestAudio(t)
	ctx := context.Background()

	cmd := types.TtsCommand{ID: "1", Content: "hello there", Priority: types.TtsPriorityLow, Mode: types.TtsModeAdd}
	require.NoError(t, client.Call(ctx, wire.MsgAudioPlay, cmd, nil))
	require.NotNil(t, s.Tts().Playing)

	err := client.Call(ctx, wire.MsgAudioPlay, types.TtsCommand{ID: "2"}, nil)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)

	require.NoError(t, client.Call(ctx, wire.MsgAudioStop, nil, nil))
	assert.Nil(t, s.Tts().Playing)
}

func TestVoiceConfigOverBus(t *testing.T) {
	_, client := newTestAudio(t)
	ctx := context.Background()

	err := client.Call(ctx, wire.MsgAudioSetVoiceConfig, types.SetSpeechConfig{Region: "mars"}, nil)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)

	require.NoError(t, client.Call(ctx, wire.MsgAudioSetVoiceConfig, types.SetSpeechConfig{SpeakerSpeed: 1.25}, nil))
	require.NoError(t, client.Call(ctx, wire.MsgAudioSwitchTtsModel, wire.TtsModelRequest{Type: types.TtsTypeGoogle}, nil))

	var cfg types.GetSpeechConfig
	require.NoError(t, client.Call(ctx, wire.MsgAudioGetVoiceConfig, nil, &cfg))
	assert.Equal(t, 1.25, cfg.SpeakerConfig.SpeakerSpeed)
	assert.Equal(t, types.TtsTypeGoogle, cfg.TtsType)
}

func TestVoiceSourcesFollowControlStream(t *testing.T) {
	s, client := newTestAudio(t)
	sources := s.Sources()
	require.Len(t, sources, 2)
	now := time.Now()

	_, ok := sources[0].Sample(now)
	assert.False(t, ok, "streams start disabled")

	require.NoError(t, client.Call(context.Background(), wire.MsgAudioControlStream, wire.VoiceStreamRequest{Raw: true, Bf: true}, nil))
	v, ok := sources[0].Sample(now)
	require.True(t, ok)
	raw := v.(*types.ByteMultiArray)
	require.Len(t, raw.Layout.Dim, 2)
	assert.EqualValues(t, micChannels, raw.Layout.Dim[1].Size)
	assert.Len(t, raw.Data, int(raw.Layout.Dim[0].Size)*micChannels*bytesPerSample)

	v, ok = sources[1].Sample(now)
	require.True(t, ok)
	bf := v.(*types.ByteMultiArray)
	assert.EqualValues(t, 1, bf.Layout.Dim[1].Size)
	// The tone is not silent.
	var peak int16
	for i := 0; i+1 < len(bf.Data); i += 2 {
		if x := int16(binary.LittleEndian.Uint16(bf.Data[i:])); x > peak {
			peak = x
		}
	}
	assert.Greater(t, peak, int16(0))
}
