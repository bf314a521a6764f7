package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/domain/simulator"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

func newExampleRobot(t *testing.T) (*magicdog.Robot, *simulator.Local) {
	t.Helper()
	logger := customlog.NewNopLogger()

	simCfg := config.DefaultSimulationConfig()
	simCfg.GaitTransitionMs = 20
	simCfg.NavTravelMs = 100
	simCfg.TtsMsPerRune = 1000
	local, err := simulator.StartLocal(context.Background(), simCfg, logger)
	require.NoError(t, err)

	robot := magicdog.NewRobot(config.DefaultClientConfig(), logger, magicdog.WithLocalBus(local.Bus))
	t.Cleanup(func() {
		robot.Release()
		assert.NoError(t, local.Close())
	})
	require.NoError(t, robot.Initialize("127.0.0.1"))
	require.NoError(t, robot.Connect(context.Background()))
	return robot, local
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLegTarget(t *testing.T) {
	var initial [types.LegJointNum]float64
	for i := range initial {
		initial[i] = 0.5
	}

	assert.Equal(t, initial, legTarget(0, initial))

	crouch := legTarget(1000, initial)
	stand := legTarget(1750, initial)
	for i := 0; i < types.LegJointNum; i++ {
		assert.InDelta(t, legCrouch[i%3], crouch[i], 1e-9, "joint %d", i)
		assert.InDelta(t, legStand[i%3], stand[i], 1e-9, "joint %d", i)
	}
	assert.Equal(t, crouch, legTarget(2500, initial))
	assert.Equal(t, legTarget(1200, initial), legTarget(2700, initial))
}

func TestStructCheck(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runStructCheck(&out))
	assert.True(t, strings.HasSuffix(out.String(), structCheckPassed+"\n"))
	assert.NotContains(t, out.String(), "FAIL")
}

func TestHighLevelExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)

	require.NoError(t, runHighLevel(ctx, robot, customlog.NewNopLogger(), types.ActionShakeLeftHand, 20*time.Millisecond))

	st := local.Sim.Motion.State()
	assert.Equal(t, types.GaitStandR, st.Gait)
	assert.Equal(t, types.ActionShakeLeftHand, st.LastTrick)
	assert.False(t, st.JoystickEnabled)
}

func TestHighLevelExampleRejectsTrickWhilePassive(t *testing.T) {
	robot, _ := newExampleRobot(t)
	ctx := testContext(t)
	hl := robot.HighLevelMotionController()

	err := hl.ExecuteTrick(ctx, types.ActionShakeLeftHand)
	assert.ErrorIs(t, err, magicdog.ErrServiceError)
}

func TestLowLevelExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)

	sent, err := runLowLevel(ctx, robot, customlog.NewNopLogger(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Greater(t, sent, 0)

	st := local.Sim.Motion.State()
	assert.Equal(t, types.ControllerLevelLow, st.Level)
	assert.EqualValues(t, sent, st.LegCommands)
}

func TestAudioExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)

	tts := types.TtsCommand{ID: "weather_alert_001", Content: "今日天气晴朗", Priority: types.TtsPriorityHigh, Mode: types.TtsModeAdd}
	frames, err := runAudio(ctx, robot, customlog.NewNopLogger(), 70, tts, 300*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 70, local.Sim.Audio.Volume())
	assert.Greater(t, frames.Origin, int64(0))
	assert.Greater(t, frames.Bf, int64(0))

	state := local.Sim.Audio.Tts()
	assert.Nil(t, state.Playing)
	require.NotEmpty(t, state.History)
	assert.Equal(t, "weather_alert_001", state.History[len(state.History)-1].ID)
}

func TestAudioExampleRejectsBadVolume(t *testing.T) {
	robot, _ := newExampleRobot(t)
	ctx := testContext(t)

	_, err := runAudio(ctx, robot, customlog.NewNopLogger(), 101, types.TtsCommand{}, 0)
	assert.ErrorIs(t, err, magicdog.ErrServiceError)
}

func TestSensorExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)

	counts, err := runSensor(ctx, robot, customlog.NewNopLogger(), 400*time.Millisecond)
	require.NoError(t, err)
	for _, name := range []string{"imu", "ultra", "head_touch", "laser_scan", "rgbd_color_image", "binocular_left_low"} {
		assert.Greater(t, counts[name], 0, name)
	}

	st := local.Sim.Sensor.State()
	assert.False(t, st.LaserScan)
	assert.False(t, st.Rgbd)
	assert.False(t, st.Binocular)
}

func TestSlamExample(t *testing.T) {
	robot, _ := newExampleRobot(t)
	ctx := testContext(t)
	dir := t.TempDir()

	all, err := runSlam(ctx, robot, customlog.NewNopLogger(), "lab", 10*time.Millisecond, dir)
	require.NoError(t, err)
	assert.Equal(t, "lab", all.CurrentMapName)
	require.Len(t, all.MapInfos, 1)

	data, err := os.ReadFile(filepath.Join(dir, "lab.pgm"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("P5\n")))
	img := all.MapInfos[0].MapMetaData.MapImageData
	assert.True(t, bytes.HasSuffix(data, img.Image))

	_, err = runSlam(ctx, robot, customlog.NewNopLogger(), "lab", 10*time.Millisecond, "")
	assert.ErrorIs(t, err, magicdog.ErrServiceError, "map names are unique")
}

func TestWritePGMRejectsShortImage(t *testing.T) {
	img := types.MapImageData{Type: "P5", Width: 4, Height: 4, MaxGrayValue: 255, Image: []byte{1, 2}}
	assert.Error(t, writePGM(filepath.Join(t.TempDir(), "bad.pgm"), img))
}

func TestNavigationExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)

	goal := types.Pose3DEuler{Position: [3]float64{1, 0.5, 0}}
	final, err := runNavigation(ctx, robot, customlog.NewNopLogger(), "office", goal)
	require.NoError(t, err)
	assert.Equal(t, types.NavStatusEndSuccess, final.Status)
	assert.EqualValues(t, 1, final.ID)

	all := local.Sim.Slam.AllMapInfo()
	assert.Equal(t, "office", all.CurrentMapName)
}

func TestMonitorExample(t *testing.T) {
	robot, local := newExampleRobot(t)
	ctx := testContext(t)
	local.Sim.Monitor.RaiseFault(types.Fault{ErrorCode: 0x2001, ErrorMessage: "battery cold"})

	state, err := runMonitor(ctx, robot, customlog.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, state.Faults, 1)
	assert.Equal(t, "battery cold", state.Faults[0].ErrorMessage)
	assert.Greater(t, state.BmsData.BatteryPercentage, 0.0)
}
