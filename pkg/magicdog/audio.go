package magicdog

import (
	"context"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// AudioController speaks, sets the volume and streams the microphones.
type AudioController struct {
	*controller
}

// SwitchTtsVoiceModel selects the TTS engine.
func (c *AudioController) SwitchTtsVoiceModel(ctx context.Context, model types.TtsType) error {
	return c.robot.call(ctx, wire.MsgAudioSwitchTtsModel, wire.TtsModelRequest{Type: model}, nil)
}

// VoiceConfig returns the speech configuration stored on the robot.
func (c *AudioController) VoiceConfig(ctx context.Context) (types.GetSpeechConfig, error) {
	var res types.GetSpeechConfig
	err := c.robot.call(ctx, wire.MsgAudioGetVoiceConfig, nil, &res)
	return res, err
}

func (c *AudioController) SetVoiceConfig(ctx context.Context, cfg types.SetSpeechConfig) error {
	return c.robot.call(ctx, wire.MsgAudioSetVoiceConfig, cfg, nil)
}

// Play queues cmd for speech according to its priority and mode.
func (c *AudioController) Play(ctx context.Context, cmd types.TtsCommand) error {
	return c.robot.call(ctx, wire.MsgAudioPlay, cmd, nil)
}

// Stop stops the current utterance and clears every queue.
func (c *AudioController) Stop(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgAudioStop, nil, nil)
}

// SetVolume sets the speaker volume, 0 to 100.
func (c *AudioController) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return types.Errorf(types.ErrorCodeServiceError, "volume %d out of range [0, 100]", volume)
	}
	return c.robot.call(ctx, wire.MsgAudioSetVolume, wire.VolumeMessage{Volume: volume}, nil)
}

func (c *AudioController) Volume(ctx context.Context) (int, error) {
	var res wire.VolumeMessage
	err := c.robot.call(ctx, wire.MsgAudioGetVolume, nil, &res)
	return res.Volume, err
}

// ControlVoiceStream turns the raw and beamformed microphone streams on or off.
func (c *AudioController) ControlVoiceStream(ctx context.Context, raw, bf bool) error {
	return c.robot.call(ctx, wire.MsgAudioControlStream, wire.VoiceStreamRequest{Raw: raw, Bf: bf}, nil)
}

func (c *AudioController) SubscribeOriginVoiceData(cb func(*types.ByteMultiArray)) error {
	return subscribeVia(c.controller, wire.TopicOriginVoice, cb)
}

func (c *AudioController) UnsubscribeOriginVoiceData() error {
	return c.unsubscribe(wire.TopicOriginVoice)
}

func (c *AudioController) SubscribeBfVoiceData(cb func(*types.ByteMultiArray)) error {
	return subscribeVia(c.controller, wire.TopicBfVoice, cb)
}

func (c *AudioController) UnsubscribeBfVoiceData() error {
	return c.unsubscribe(wire.TopicBfVoice)
}

// SubscribeVoiceConfig is called with the new configuration whenever any
// client changes it.
func (c *AudioController) SubscribeVoiceConfig(cb func(*types.GetSpeechConfig)) error {
	return subscribeVia(c.controller, wire.TopicVoiceConfigUpdated, cb)
}

func (c *AudioController) UnsubscribeVoiceConfig() error {
	return c.unsubscribe(wire.TopicVoiceConfigUpdated)
}
