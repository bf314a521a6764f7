package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	voice  services.VoiceConfigService
	logger customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(voice services.VoiceConfigService, logger customlog.Logger) *ConfigHandler {
	if voice == nil {
		panic("VoiceConfigService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		voice:  voice,
		logger: logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, voice services.VoiceConfigService, logger customlog.Logger) {
	h := NewConfigHandler(voice, logger)

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/voice", h.handleGetVoiceConfig)
	apiGroup.Put("/voice", h.handleUpdateVoiceConfig)

	logger.Infof("Registered voice configuration API endpoints under /api/v1/config")
}

// handleGetVoiceConfig returns the speech configuration file as YAML.
func (h *ConfigHandler) handleGetVoiceConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config/voice")
	yamlData, err := h.voice.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to get current voice config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}
	if len(yamlData) == 0 {
		h.logger.Warnf("Voice config file is empty.")
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Voice configuration not found or not yet set.",
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateVoiceConfig replaces the speech configuration with the YAML body.
func (h *ConfigHandler) handleUpdateVoiceConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling PUT request for /api/v1/config/voice")

	switch ct := c.Get(fiber.HeaderContentType); ct {
	case "application/x-yaml", "application/yaml", "text/yaml":
	default:
		h.logger.Warnf("Received PUT request with unexpected Content-Type: %s", ct)
	}

	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.voice.UpdateConfig(newConfigYAML); err != nil {
		h.logger.Errorf("Failed to update voice configuration: %v", err)
		if errors.Is(err, services.ErrInvalidConfig) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Configuration update failed: %v", err),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during configuration update: %v", err),
		})
	}

	h.logger.Infof("Voice configuration updated through the API")
	return c.JSON(fiber.Map{
		"message": "Voice configuration updated successfully.",
	})
}
