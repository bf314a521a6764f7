package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*MotionService, *fakeClock) {
	t.Helper()
	cfg := config.DefaultSimulationConfig()
	cfg.GaitTransitionMs = 100
	s := NewMotionService(cfg, nil, customlog.NewNopLogger())
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s.now = clock.Now
	return s, clock
}

func TestGaitTransitionTakesTime(t *testing.T) {
	s, clock := newTestService(t)
	assert.Equal(t, types.GaitPassive, s.Gait())

	require.NoError(t, s.SetGait(types.GaitStandR))
	assert.Equal(t, types.GaitPassive, s.Gait(), "transition still running")
	assert.Equal(t, types.GaitStandR, s.State().TargetGait)

	clock.Advance(99 * time.Millisecond)
	assert.Equal(t, types.GaitPassive, s.Gait())
	clock.Advance(time.Millisecond)
	assert.Equal(t, types.GaitStandR, s.Gait())
}

func TestSetGaitRejectsUnknownAndLowLevelGaits(t *testing.T) {
	s, _ := newTestService(t)

	err := s.SetGait(types.GaitMode(12345))
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)

	err = s.SetGait(types.GaitNone)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)

	err = s.SetGait(types.GaitLowLevelSDK)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)
}

func TestLevelSwitchParksGait(t *testing.T) {
	s, _ := newTestService(t)
	require.NoError(t, s.SetJoystickEnabled(true))

	s.OnLevelChange(types.ControllerLevelHigh, types.ControllerLevelLow)
	st := s.State()
	assert.Equal(t, types.GaitLowLevelSDK, st.Gait)
	assert.False(t, st.JoystickEnabled)

	err := s.SetGait(types.GaitStandR)
	assert.Equal(t, types.ErrorCodeServiceNotReady, types.StatusOf(err).Code)
	err = s.SetJoystickEnabled(true)
	assert.Equal(t, types.ErrorCodeServiceNotReady, types.StatusOf(err).Code)

	s.OnLevelChange(types.ControllerLevelLow, types.ControllerLevelHigh)
	assert.Equal(t, types.GaitPassive, s.Gait())
}

func TestTricks(t *testing.T) {
	s, clock := newTestService(t)

	err := s.ExecuteTrick(types.ActionShakeLeftHand)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code, "passive robot cannot do tricks")

	require.NoError(t, s.ExecuteTrick(types.ActionRecoveryStand))
	err = s.ExecuteTrick(types.ActionShakeLeftHand)
	assert.Error(t, err, "still standing up")

	clock.Advance(time.Second)
	require.NoError(t, s.ExecuteTrick(types.ActionShakeLeftHand))
	assert.Equal(t, types.ActionShakeLeftHand, s.State().LastTrick)

	err = s.ExecuteTrick(types.TrickAction(-7))
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)
}

func TestEmergencyStopAlwaysAccepted(t *testing.T) {
	s, clock := newTestService(t)
	require.NoError(t, s.SetGait(types.GaitTrot))
	clock.Advance(time.Second)
	require.NoError(t, s.SetJoystickEnabled(true))

	s.OnLevelChange(types.ControllerLevelHigh, types.ControllerLevelLow)
	require.NoError(t, s.ExecuteTrick(types.ActionEmergencyStop))

	st := s.State()
	assert.Equal(t, types.GaitPassive, st.Gait)
	assert.False(t, st.JoystickEnabled)
}

func TestJoystick(t *testing.T) {
	s, _ := newTestService(t)
	cmd := types.JoystickCommand{LeftYAxis: 0.5, RightXAxis: -0.25}

	err := s.Joystick(cmd)
	assert.Equal(t, types.ErrorCodeServiceNotReady, types.StatusOf(err).Code, "disabled by default")

	require.NoError(t, s.SetJoystickEnabled(true))
	require.NoError(t, s.Joystick(cmd))
	assert.Equal(t, cmd, s.State().Joystick)

	err = s.Joystick(types.JoystickCommand{LeftXAxis: 1.5})
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)

	require.NoError(t, s.SetJoystickEnabled(false))
	assert.Equal(t, types.JoystickCommand{}, s.State().Joystick)
}

func TestSpeedRatios(t *testing.T) {
	s, _ := newTestService(t)

	ratios := s.SpeedRatios()
	assert.Equal(t, types.GaitSpeedRatio{StraightRatio: 1, TurnRatio: 1, LateralRatio: 1}, ratios.GaitSpeedRatios[types.GaitTrot])

	r := types.GaitSpeedRatio{StraightRatio: 0.5, TurnRatio: 0.2, LateralRatio: 0}
	require.NoError(t, s.SetSpeedRatio(types.GaitTrot, r))
	assert.Equal(t, r, s.SpeedRatios().GaitSpeedRatios[types.GaitTrot])

	assert.Error(t, s.SetSpeedRatio(types.GaitTrot, types.GaitSpeedRatio{StraightRatio: 1.2}))
	assert.Error(t, s.SetSpeedRatio(types.GaitMode(4242), r))

	// The returned map is a copy.
	ratios.GaitSpeedRatios[types.GaitWalk] = r
	assert.NotEqual(t, r, s.SpeedRatios().GaitSpeedRatios[types.GaitWalk])
}

func TestLegCommandsNeedLowLevel(t *testing.T) {
	s, _ := newTestService(t)
	var cmd types.LegJointCommand
	for i := range cmd.Cmd {
		cmd.Cmd[i] = types.SingleLegJointCommand{QDes: 0.3, Kp: 20, Kd: 0.5}
	}

	err := s.ApplyLegCommand(cmd)
	assert.Equal(t, types.ErrorCodeServiceNotReady, types.StatusOf(err).Code)

	s.OnLevelChange(types.ControllerLevelHigh, types.ControllerLevelLow)
	require.NoError(t, s.ApplyLegCommand(cmd))
	assert.EqualValues(t, 1, s.State().LegCommands)

	// Joints converge toward the target.
	start := s.step(0.002).State[0].Q
	var last types.LegState
	for i := 0; i < 2000; i++ {
		last = s.step(0.002)
	}
	assert.Greater(t, last.State[0].Q, start)
	assert.InDelta(t, 0.3, last.State[0].Q, 1e-3)
	assert.InDelta(t, 0.3, last.State[1].Q, 1e-3)
}

func TestLegStateSourceWithoutCommandHoldsPose(t *testing.T) {
	s, clock := newTestService(t)
	src := s.Sources()
	require.Len(t, src, 1)

	v, ok := src[0].Sample(clock.Now())
	require.True(t, ok)
	st := v.(*types.LegState)
	assert.Equal(t, restPose[1], st.State[1].Q)
	assert.Zero(t, st.State[1].Dq)
}
