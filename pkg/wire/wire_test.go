package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/types"
)

func sampleLegCommand() types.LegJointCommand {
	cmd := types.LegJointCommand{Timestamp: 1712345678901234567}
	for i := range cmd.Cmd {
		f := float64(i) + 1.0
		cmd.Cmd[i] = types.SingleLegJointCommand{QDes: f, DqDes: -f, TauDes: f / 10, Kp: 100, Kd: 1.2}
	}
	return cmd
}

func TestLegCommandRoundTrip(t *testing.T) {
	in := sampleLegCommand()
	buf := EncodeLegCommand(&in)

	assert.Equal(t, IdentLegCommand, Identify(buf))
	out, err := DecodeLegCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLegStateRoundTrip(t *testing.T) {
	in := types.LegState{Timestamp: 42}
	for i := range in.State {
		in.State[i] = types.SingleLegJointState{Q: float64(i) + 1.0, Dq: 0.5, TauEst: -2.25}
	}
	out, err := DecodeLegState(EncodeLegState(&in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestImuRoundTrip(t *testing.T) {
	in := types.Imu{
		Timestamp:          99,
		Orientation:        [4]float64{1, 2, 3, 4},
		AngularVelocity:    [3]float64{1, 2, 3},
		LinearAcceleration: [3]float64{0, 0, 9.81},
		Temperature:        36.5,
	}
	out, err := DecodeImu(EncodeImu(&in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestZeroValuesSurvive(t *testing.T) {
	var in types.Imu
	out, err := DecodeImu(EncodeImu(&in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsWrongIdentifier(t *testing.T) {
	cmd := sampleLegCommand()
	buf := EncodeLegCommand(&cmd)

	_, err := DecodeLegState(buf)
	assert.True(t, errors.Is(err, ErrInvalidFlatbuffer), "got %v", err)
	_, err = DecodeImu([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrInvalidFlatbuffer), "got %v", err)
	assert.Equal(t, "", Identify([]byte{1, 2}))
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	cmd := sampleLegCommand()
	buf := EncodeLegCommand(&cmd)

	_, err := DecodeLegCommand(buf[:len(buf)/2])
	assert.True(t, errors.Is(err, ErrInvalidFlatbuffer), "got %v", err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewRequest(MsgAudioSetVolume, VolumeMessage{Volume: 55})
	require.NoError(t, err)
	assert.NotEmpty(t, env.RequestID)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	parsed, err := ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, MsgAudioSetVolume, parsed.Type)

	var vol VolumeMessage
	require.NoError(t, parsed.Bind(&vol))
	assert.Equal(t, 55, vol.Volume)
}

func TestParseEnvelopeErrors(t *testing.T) {
	_, err := ParseEnvelope([]byte("not json"))
	assert.True(t, errors.Is(err, ErrInvalidMessage))
	_, err = ParseEnvelope([]byte(`{"timestamp":1}`))
	assert.True(t, errors.Is(err, ErrInvalidMessage))
}

func TestReplyResult(t *testing.T) {
	r, err := NewReply("abc", types.StatusOK(), GaitMessage{Gait: types.GaitTrot})
	require.NoError(t, err)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	parsed, err := ParseReply(raw)
	require.NoError(t, err)
	assert.True(t, parsed.Status.OK())

	var g GaitMessage
	require.NoError(t, DecodeResult(parsed, &g))
	assert.Equal(t, types.GaitTrot, g.Gait)

	e := ErrorReply("abc", types.ErrorCodeServiceError, errors.New("boom"))
	assert.Equal(t, MsgTypeError, e.Type)
	assert.Equal(t, "boom", e.Status.Message)
}

func TestTopicCodec(t *testing.T) {
	st := types.LegState{Timestamp: 7}
	st.State[11].Q = 12.0
	data, err := EncodeTopic(TopicLegState, st)
	require.NoError(t, err)
	assert.Equal(t, IdentLegState, Identify(data))

	var gotState types.LegState
	require.NoError(t, DecodeTopic(TopicLegState, data, &gotState))
	assert.Equal(t, st, gotState)

	nav := types.NavStatus{ID: 3, Status: types.NavStatusRunning, Message: "moving"}
	data, err = EncodeTopic(TopicNavStatus, nav)
	require.NoError(t, err)
	var gotNav types.NavStatus
	require.NoError(t, DecodeTopic(TopicNavStatus, data, &gotNav))
	assert.Equal(t, nav, gotNav)

	_, err = EncodeTopic(TopicImu, "nope")
	assert.Error(t, err)
	assert.Error(t, DecodeTopic(TopicImu, data, &gotNav))
}
