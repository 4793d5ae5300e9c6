package chart

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardchart/wardchart/internal/platform/apperr"
	"github.com/wardchart/wardchart/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, physician, nurse
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/hospitalizations/:id/chart", h.GetChart)
	readGroup.GET("/hospitalizations/:id/grid/day", h.DayGrid)
	readGroup.GET("/hospitalizations/:id/grid/stay", h.StayGrid)
	readGroup.GET("/row-templates", h.ListTemplates)

	// Write endpoints – admin, physician, nurse
	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	writeGroup.POST("/rows", h.CreateRow)
	writeGroup.DELETE("/rows/:id", h.DeleteRow)
	writeGroup.PUT("/rows/:id/cell", h.UpsertEntry)
	writeGroup.DELETE("/rows/:id/cell", h.DeleteEntry)
	writeGroup.POST("/rows/:id/cell/flag", h.ToggleFlag)
	writeGroup.POST("/schedules", h.CreateSchedule)
	writeGroup.DELETE("/schedules/:id", h.DeleteSchedule)
	writeGroup.POST("/hospitalizations/:id/row-templates/:templateID", h.ApplyTemplate)
}

func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// atParam parses the required "at" query parameter addressing a cell's hour.
func atParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("at")
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "at query parameter is required")
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "at must be an RFC 3339 timestamp")
	}
	return at, nil
}

// -- Chart reads --

func (h *Handler) GetChart(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	data, err := h.svc.GetChart(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *Handler) DayGrid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	raw := c.QueryParam("date")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	view, err := h.svc.DayGrid(c.Request().Context(), id, day)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) StayGrid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.svc.StayGrid(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// -- Rows --

func (h *Handler) CreateRow(c echo.Context) error {
	var row ChartRow
	if err := c.Bind(&row); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRow(c.Request().Context(), &row); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, row)
}

func (h *Handler) DeleteRow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRow(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Cells --

func (h *Handler) UpsertEntry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	at, err := atParam(c)
	if err != nil {
		return err
	}
	var in ValueInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.svc.UpsertEntry(c.Request().Context(), id, at, in)
	if err != nil {
		return httpError(err)
	}
	if entry == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	at, err := atParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEntry(c.Request().Context(), id, at); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleFlag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	at, err := atParam(c)
	if err != nil {
		return err
	}
	entry, err := h.svc.ToggleFlag(c.Request().Context(), id, at)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// -- Schedules --

func (h *Handler) CreateSchedule(c echo.Context) error {
	var sched Schedule
	if err := c.Bind(&sched); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSchedule(c.Request().Context(), &sched); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sched)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSchedule(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Templates --

func (h *Handler) ListTemplates(c echo.Context) error {
	templates, err := h.svc.ListTemplates(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, templates)
}

func (h *Handler) ApplyTemplate(c echo.Context) error {
	hospID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tmplID, err := pathID(c, "templateID")
	if err != nil {
		return err
	}
	rows, err := h.svc.ApplyTemplate(c.Request().Context(), tmplID, hospID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rows)
}
