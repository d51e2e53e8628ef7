package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/settings"
)

// SettingsHandler exposes the lab settings file.  The file is re-read on
// every request so admins can edit it without restarting the service.
type SettingsHandler struct {
	DataDir string
	Logger  *zerolog.Logger
}

func NewSettingsHandler(dataDir string, logger *zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{DataDir: dataDir, Logger: logger}
}

func (h *SettingsHandler) Get(c echo.Context) error {
	s, err := settings.Load(h.DataDir)
	if err != nil {
		h.Logger.Error().Err(err).Msg("load settings")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settings unavailable"})
	}
	return c.JSON(http.StatusOK, s)
}
