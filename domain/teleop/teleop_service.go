package teleop

import (
	"errors"
	"math"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/magicdog/sdk/domain/motion"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

// ErrInvalidCommand is returned for joystick samples outside [-1, 1].
var ErrInvalidCommand = errors.New("invalid joystick command")

// Stats counts joystick samples received over HTTP and websocket
type Stats struct {
	Received int64 `json:"received"`
	Rejected int64 `json:"rejected"`
}

// TeleopService bridges operator joystick input into the motion simulator
type TeleopService struct {
	motion *motion.MotionService
	logger customlog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewTeleopService creates a new teleop service instance
func NewTeleopService(m *motion.MotionService, logger customlog.Logger) *TeleopService {
	return &TeleopService{
		motion: m,
		logger: logger.WithField("service", "teleop"),
	}
}

// ValidateCommand checks that every axis is a number in [-1, 1]
func (s *TeleopService) ValidateCommand(cmd types.JoystickCommand) error {
	for _, axis := range []float64{cmd.LeftXAxis, cmd.LeftYAxis, cmd.RightXAxis, cmd.RightYAxis} {
		if math.IsNaN(axis) || axis < -1 || axis > 1 {
			return ErrInvalidCommand
		}
	}
	return nil
}

// SendCommand validates cmd and applies it to the robot
func (s *TeleopService) SendCommand(cmd types.JoystickCommand) error {
	err := s.ValidateCommand(cmd)
	if err == nil {
		err = s.motion.Joystick(cmd)
	}

	s.mu.Lock()
	s.stats.Received++
	if err != nil {
		s.stats.Rejected++
	}
	s.mu.Unlock()
	return err
}

// Stats returns the sample counters
func (s *TeleopService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// CommandHandler processes a joystick sample posted as JSON
func (s *TeleopService) CommandHandler(c *fiber.Ctx) error {
	var cmd types.JoystickCommand
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.SendCommand(cmd); err != nil {
		code := fiber.StatusBadRequest
		if types.StatusOf(err).Code == types.ErrorCodeServiceNotReady {
			code = fiber.StatusConflict
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "command received",
		"command": cmd,
	})
}

// GaitHandler reports the motion state
func (s *TeleopService) GaitHandler(c *fiber.Ctx) error {
	return c.JSON(s.motion.State())
}
