package teleop

import (
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/domain/motion"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

func newTestTeleop() (*TeleopService, *motion.MotionService) {
	m := motion.NewMotionService(config.DefaultSimulationConfig(), nil, customlog.NewNopLogger())
	return NewTeleopService(m, customlog.NewNopLogger()), m
}

func TestValidateCommand(t *testing.T) {
	s, _ := newTestTeleop()

	assert.NoError(t, s.ValidateCommand(types.JoystickCommand{LeftXAxis: -1, RightYAxis: 1}))
	assert.ErrorIs(t, s.ValidateCommand(types.JoystickCommand{LeftYAxis: 1.01}), ErrInvalidCommand)
	assert.ErrorIs(t, s.ValidateCommand(types.JoystickCommand{RightXAxis: math.NaN()}), ErrInvalidCommand)
}

func TestSendCommandCountsRejections(t *testing.T) {
	s, m := newTestTeleop()

	assert.Error(t, s.SendCommand(types.JoystickCommand{LeftYAxis: 0.5}), "joystick disabled")
	require.NoError(t, m.SetJoystickEnabled(true))
	require.NoError(t, s.SendCommand(types.JoystickCommand{LeftYAxis: 0.5}))

	assert.Equal(t, Stats{Received: 2, Rejected: 1}, s.Stats())
	assert.Equal(t, 0.5, m.State().Joystick.LeftYAxis)
}

func TestCommandHandler(t *testing.T) {
	s, m := newTestTeleop()
	app := fiber.New()
	app.Post("/joystick", s.CommandHandler)
	app.Get("/gait", s.GaitHandler)

	post := func(body string) int {
		req := httptest.NewRequest("POST", "/joystick", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusConflict, post(`{"left_y_axis":0.2}`))
	require.NoError(t, m.SetJoystickEnabled(true))
	assert.Equal(t, fiber.StatusOK, post(`{"left_y_axis":0.2}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"left_y_axis":3}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`not json`))

	resp, err := app.Test(httptest.NewRequest("GET", "/gait", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"joystick_enabled":true`)
}
