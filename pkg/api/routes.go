package api

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magicdog/sdk/domain/simulator"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// RegisterRoutes mounts the simulator API on app. gatherer backs /metrics.
func RegisterRoutes(app *fiber.App, sim *simulator.Simulator, pub *zeromq.StreamPublisher, gatherer prometheus.Gatherer, logger customlog.Logger) {
	started := time.Now()
	version := sim.Version()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "magicdog simulator",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{
			Status:  "healthy",
			Version: version,
			Uptime:  time.Since(started).Round(time.Second).String(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	api.Get("/state", sim.Monitor.GetStateHandler)
	api.Post("/charging", sim.Monitor.SetChargingHandler)
	api.Get("/gait", sim.Teleop.GaitHandler)
	api.Post("/joystick", sim.Teleop.CommandHandler)
	api.Get("/streams", func(c *fiber.Ctx) error {
		return c.JSON(StreamsResponse{Status: "success", Streams: pub.Counts()})
	})
	api.Get("/clients", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "clients": sim.Session.Clients()})
	})
	api.Get("/tts", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "tts": sim.Audio.Tts()})
	})
	api.Get("/sensors", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "sensors": sim.Sensor.State()})
	})
	api.Get("/slam", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "slam": sim.Slam.State()})
	})

	RegisterConfigRoutes(app, sim.Voice, logger)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/joystick", websocket.New(func(conn *websocket.Conn) {
		JoystickWebSocketHandler(conn, logger, sim.Teleop)
	}))

	logger.Infof("Registered simulator API routes")
}

// ErrorHandler answers every unhandled error as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
