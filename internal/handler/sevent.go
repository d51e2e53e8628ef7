package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/middleware"
	"github.com/emclab/station-booking/internal/model"
	"github.com/emclab/station-booking/internal/repository"
)

// SeventHandler serves the special-event endpoints.
type SeventHandler struct {
	Events *repository.SeventRepo
	Logger *zerolog.Logger
}

func NewSeventHandler(events *repository.SeventRepo, logger *zerolog.Logger) *SeventHandler {
	return &SeventHandler{Events: events, Logger: logger}
}

func (h *SeventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, events)
}

func (h *SeventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, ev)
}

// ByStation lists the events blocking a single station.  Lab-wide events are
// not included here.
func (h *SeventHandler) ByStation(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ByStationID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, events)
}

func (h *SeventHandler) Create(c echo.Context) error {
	var in model.SeventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if in.Name == "" || in.FromDate == "" || in.ToDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/from_date/to_date required"})
	}
	if in.CreatedBy == "" {
		if username, ok := c.Get(middleware.CtxUsername).(string); ok {
			in.CreatedBy = username
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Events.Create(ctx, in)
	if err != nil || !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.NoContent(http.StatusCreated)
}

func (h *SeventHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var in model.SeventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in.ID = id
	if in.UpdatedBy == "" {
		if username, ok := c.Get(middleware.CtxUsername).(string); ok {
			in.UpdatedBy = username
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Events.Update(ctx, in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SeventHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Events.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
