package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/model"
	"github.com/emclab/station-booking/internal/queue"
	"github.com/emclab/station-booking/internal/repository"
	"github.com/emclab/station-booking/internal/service"
	"github.com/emclab/station-booking/internal/settings"
)

// ReservationHandler serves the booking endpoints.  Publisher may be nil, in
// which case no events are emitted.
type ReservationHandler struct {
	Res       *repository.ReservationRepo
	Publisher *service.EventPublisher
	DataDir   string
	Logger    *zerolog.Logger
}

func NewReservationHandler(res *repository.ReservationRepo, pub *service.EventPublisher, dataDir string, logger *zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{Res: res, Publisher: pub, DataDir: dataDir, Logger: logger}
}

// List dispatches on the query parameters: date, month, year or range, the
// last optionally filtered by projectEngineer/createdBy and paginated when
// both pageNumber and pageSize are present.  Supplying only one page
// parameter returns the unpaginated list.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pe := c.QueryParam("projectEngineer")

	switch {
	case c.QueryParam("date") != "":
		out, err := h.Res.ByDate(ctx, c.QueryParam("date"))
		return h.respondList(c, out, err)
	case c.QueryParam("month") != "":
		out, err := h.Res.ByMonth(ctx, c.QueryParam("month"), pe)
		return h.respondList(c, out, err)
	case c.QueryParam("year") != "":
		year := c.QueryParam("year")
		if _, err := time.Parse("2006", year); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		out, err := h.Res.ByYear(ctx, year, pe)
		return h.respondList(c, out, err)
	default:
		timeRange := c.QueryParam("range")
		if timeRange == "" {
			timeRange = "all"
		}
		createdBy := c.QueryParam("createdBy")

		pageNumber, okN := atoiParam(c.QueryParam("pageNumber"))
		pageSize, okS := atoiParam(c.QueryParam("pageSize"))
		if okN && okS {
			page, err := h.Res.Paginated(ctx, timeRange, pe, createdBy, pageNumber, pageSize)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
			return c.JSON(http.StatusOK, page)
		}
		out, err := h.Res.All(ctx, timeRange, pe, createdBy)
		return h.respondList(c, out, err)
	}
}

func (h *ReservationHandler) respondList(c echo.Context, out []model.Reservation, err error) error {
	if err != nil {
		if errors.Is(err, repository.ErrInvalidMonth) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create books one or more slots.  The response carries the number of rows
// actually inserted; zero means every requested slot was already taken and is
// reported as a conflict.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in model.ReservationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if in.ReservationDate == "" || in.StationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_date/station_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	inserted, outcomes, err := h.Res.CreateBatch(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrNoTimeSlot) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_slot required"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}
	if inserted == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "time slot already reserved", "inserted": 0})
	}

	if h.Publisher != nil {
		slots := make([]string, 0, len(outcomes))
		for _, o := range outcomes {
			if o.Inserted {
				slots = append(slots, o.TimeSlot)
			}
		}
		ev := queue.ReservationCreatedEvent{
			ReservationDate: in.ReservationDate,
			TimeSlots:       slots,
			StationID:       in.StationID,
			ProjectEngineer: in.ProjectEngineer,
			TestingEngineer: in.TestingEngineer,
			ReservateBy:     in.ReservateBy,
			Inserted:        inserted,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		}
		// Fire and forget; a broker outage must not fail the booking.
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pcancel()
			_ = h.Publisher.PublishReservationCreated(pctx, ev)
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"inserted": inserted})
}

// Update rewrites a reservation, guarded by the updated_on value the client
// read.  A stale or missing record is a conflict, not a 404: the client has
// to re-fetch either way.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var res model.Reservation
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res.ID = id
	if res.UpdatedOn == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "updated_on required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Res.Update(ctx, res); err != nil {
		if errors.Is(err, repository.ErrNotFoundOrStale) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation modified or removed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a reservation.  Cancelling maps to a hard delete here, so
// the slot frees up immediately.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Res.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete reservation failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// StationStatus lists the occupied slots of a station on one date.  Slots
// missing from the answer are free.
func (h *ReservationHandler) StationStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	statuses, err := h.Res.StationStatusForDate(ctx, id, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, statuses)
}

// StationMonth lists one station's reservations within a calendar month.
func (h *ReservationHandler) StationMonth(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Res.ByStationAndMonth(ctx, id, c.Param("month"))
	return h.respondList(c, out, err)
}

// dayLoad is one calendar day's aggregate load for the heat map.
type dayLoad struct {
	Date      string  `json:"date"`
	Count     int     `json:"count"`
	Band      string  `json:"band"`
	Intensity float64 `json:"intensity"`
}

// MonthLoad aggregates a month's reservations per day and classifies each
// day against the configured load thresholds.
func (h *ReservationHandler) MonthLoad(c echo.Context) error {
	month := c.Param("month")

	cfg, err := settings.Load(h.DataDir)
	if err != nil {
		h.Logger.Error().Err(err).Msg("load settings")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settings unavailable"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reservations, err := h.Res.ByMonth(ctx, month, "")
	if err != nil {
		if errors.Is(err, repository.ErrInvalidMonth) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	counts := make(map[string]int)
	for _, r := range reservations {
		counts[r.ReservationDate]++
	}
	out := make([]dayLoad, 0, len(counts))
	for date, n := range counts {
		out = append(out, dayLoad{
			Date:      date,
			Count:     n,
			Band:      string(settings.Classify(n, cfg.LoadSetting)),
			Intensity: settings.Intensity(n, cfg.LoadSetting),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return c.JSON(http.StatusOK, out)
}

// atoiParam parses an optional positive-integer query parameter.  The bool
// reports presence, not validity; a malformed value counts as present so the
// repository's coercion rules apply.
func atoiParam(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, true
	}
	return n, true
}
