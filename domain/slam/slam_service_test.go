package slam

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

func newTestSlam(t *testing.T) (*SlamService, *fakeClock) {
	t.Helper()
	cfg := config.DefaultSimulationConfig()
	cfg.NavTravelMs = 1000
	s := NewSlamService(cfg, customlog.NewNopLogger())
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s.now = clock.Now
	return s, clock
}

// navigating prepares a saved, loaded and localized map in GRID_MAP mode.
func navigating(t *testing.T, s *SlamService) {
	t.Helper()
	require.NoError(t, s.StartMapping())
	require.NoError(t, s.SaveMap("office"))
	require.NoError(t, s.SwitchToLocation())
	require.NoError(t, s.InitPose(types.Pose3DEuler{}))
	require.NoError(t, s.ActivateNavMode(types.NavModeGridMap))
}

func target(x, y float64) types.NavTarget {
	t := types.NewNavTarget()
	t.Goal.Position = [3]float64{x, y, 0}
	return t
}

func assertCode(t *testing.T, code types.ErrorCode, err error) {
	t.Helper()
	assert.Equal(t, code, types.StatusOf(err).Code)
}

func TestMappingLifecycle(t *testing.T) {
	s, _ := newTestSlam(t)

	assertCode(t, types.ErrorCodeServiceError, s.SaveMap("a"))
	assertCode(t, types.ErrorCodeServiceError, s.CancelMapping())
	assertCode(t, types.ErrorCodeServiceError, s.SwitchToLocation())

	require.NoError(t, s.StartMapping())
	assertCode(t, types.ErrorCodeServiceError, s.StartMapping())
	assertCode(t, types.ErrorCodeServiceError, s.SaveMap(""))
	require.NoError(t, s.SaveMap("b"))
	assert.Equal(t, ModeIdle, s.State().Mode)

	require.NoError(t, s.StartMapping())
	assertCode(t, types.ErrorCodeServiceError, s.SaveMap("b"))
	require.NoError(t, s.SaveMap("a"))

	all := s.AllMapInfo()
	assert.Equal(t, "a", all.CurrentMapName)
	require.Len(t, all.MapInfos, 2)
	assert.Equal(t, "a", all.MapInfos[0].MapName)
	assert.Equal(t, "b", all.MapInfos[1].MapName)

	require.NoError(t, s.StartMapping())
	require.NoError(t, s.CancelMapping())
	assert.Len(t, s.AllMapInfo().MapInfos, 2)
}

func TestLoadAndDeleteMap(t *testing.T) {
	s, _ := newTestSlam(t)
	require.NoError(t, s.StartMapping())
	require.NoError(t, s.SaveMap("a"))
	require.NoError(t, s.StartMapping())
	require.NoError(t, s.SaveMap("b"))

	assertCode(t, types.ErrorCodeServiceError, s.LoadMap("missing"))
	assertCode(t, types.ErrorCodeServiceError, s.DeleteMap("b"))
	require.NoError(t, s.LoadMap("a"))
	require.NoError(t, s.DeleteMap("b"))
	assertCode(t, types.ErrorCodeServiceError, s.DeleteMap("b"))
	assert.Equal(t, "a", s.AllMapInfo().CurrentMapName)
}

func TestInitPoseNeedsLocation(t *testing.T) {
	s, _ := newTestSlam(t)
	assertCode(t, types.ErrorCodeServiceError, s.InitPose(types.Pose3DEuler{}))

	require.NoError(t, s.StartMapping())
	require.NoError(t, s.SaveMap("a"))
	require.NoError(t, s.SwitchToLocation())
	assert.False(t, s.LocalizationInfo().IsLocalization)

	pose := types.Pose3DEuler{Position: [3]float64{1, 2, 0}}
	require.NoError(t, s.InitPose(pose))
	loc := s.LocalizationInfo()
	assert.True(t, loc.IsLocalization)
	assert.Equal(t, pose, loc.Pose)

	require.NoError(t, s.SwitchToIdle())
	assert.False(t, s.LocalizationInfo().IsLocalization)
}

func TestNavModeRules(t *testing.T) {
	s, _ := newTestSlam(t)
	assertCode(t, types.ErrorCodeServiceError, s.ActivateNavMode(types.NavModeGridMap))
	assertCode(t, types.ErrorCodeServiceError, s.ActivateNavMode(types.NavMode(9)))
	assertCode(t, types.ErrorCodeServiceError, s.SetNavTarget(target(1, 1)))
	assert.Equal(t, types.NewNavStatus(), s.NavStatus())
}

func TestNavigationReachesTarget(t *testing.T) {
	s, clock := newTestSlam(t)
	navigating(t, s)

	require.NoError(t, s.SetNavTarget(target(2, 0)))
	st := s.NavStatus()
	assert.EqualValues(t, 1, st.ID)
	assert.Equal(t, types.NavStatusRunning, st.Status)

	clock.Advance(500 * time.Millisecond)
	assert.InDelta(t, 1.0, s.LocalizationInfo().Pose.Position[0], 1e-9)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, types.NavStatusEndSuccess, s.NavStatus().Status)
	assert.Equal(t, 2.0, s.LocalizationInfo().Pose.Position[0])

	assertCode(t, types.ErrorCodeServiceError, s.CancelNavTask())
	assertCode(t, types.ErrorCodeServiceError, s.PauseNavTask())
}

func TestPauseResumeKeepsRemainingTravel(t *testing.T) {
	s, clock := newTestSlam(t)
	navigating(t, s)
	require.NoError(t, s.SetNavTarget(target(4, 0)))

	clock.Advance(250 * time.Millisecond)
	require.NoError(t, s.PauseNavTask())
	assert.Equal(t, types.NavStatusPause, s.NavStatus().Status)
	assertCode(t, types.ErrorCodeServiceError, s.PauseNavTask())

	// Paused robots do not move.
	clock.Advance(10 * time.Second)
	assert.InDelta(t, 1.0, s.LocalizationInfo().Pose.Position[0], 1e-9)

	require.NoError(t, s.ResumeNavTask())
	assert.Equal(t, types.NavStatusContinue, s.NavStatus().Status)
	assertCode(t, types.ErrorCodeServiceError, s.ResumeNavTask())

	clock.Advance(375 * time.Millisecond)
	assert.InDelta(t, 2.5, s.LocalizationInfo().Pose.Position[0], 1e-9)
	clock.Advance(375 * time.Millisecond)
	assert.Equal(t, types.NavStatusEndSuccess, s.NavStatus().Status)
}

func TestNewTargetCancelsRunningTask(t *testing.T) {
	s, _ := newTestSlam(t)
	navigating(t, s)

	first := target(1, 0)
	first.ID = 10
	require.NoError(t, s.SetNavTarget(first))
	require.NoError(t, s.SetNavTarget(target(0, 1)))
	assert.EqualValues(t, 11, s.NavStatus().ID)

	require.NoError(t, s.CancelNavTask())
	assert.Equal(t, types.NavStatusCancel, s.NavStatus().Status)
}

func TestSourcesPublishOdometryAndNavStatus(t *testing.T) {
	s, clock := newTestSlam(t)
	sources := s.Sources()
	require.Len(t, sources, 2)

	_, ok := sources[1].Sample(clock.Now())
	assert.False(t, ok, "no task, no nav status")

	navigating(t, s)
	require.NoError(t, s.SetNavTarget(target(1, 0)))
	clock.Advance(500 * time.Millisecond)

	v, ok := sources[0].Sample(clock.Now())
	require.True(t, ok)
	odom := v.(*types.Odometry)
	assert.InDelta(t, 0.5, odom.Position[0], 1e-9)
	assert.InDelta(t, 1.0, odom.LinearVelocity[0], 1e-9)
	assert.Equal(t, [4]float64{1, 0, 0, 0}, odom.Orientation)

	v, ok = sources[1].Sample(clock.Now())
	require.True(t, ok)
	assert.Equal(t, types.NavStatusRunning, v.(*types.NavStatus).Status)
}
