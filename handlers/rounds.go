package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/golfstats/models"
)

type holeSummary struct {
	CourseName string   `bun:"course_name" json:"courseName"`
	HoleNumber int      `bun:"hole_number" json:"holeNumber"`
	Par        *int     `bun:"par" json:"par,omitempty"`
	Played     int      `bun:"played" json:"played"`
	AvgStrokes float64  `bun:"avg_strokes" json:"avgStrokes"`
	AvgPutts   float64  `bun:"avg_putts" json:"avgPutts"`
	AvgToPar   *float64 `bun:"avg_to_par" json:"avgToPar,omitempty"`
	Fairways   int      `bun:"fairways" json:"fairways"`
	Bunkers    int      `bun:"bunkers" json:"bunkers"`
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &t, nil
}

// Rounds returns per-round KPIs, newest first. Optional filters: from and to
// (inclusive dates), course and tee (names).
func (h *Handler) Rounds(c echo.Context) error {
	from, err := dateParam(c, "from")
	if err != nil {
		return err
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return echo.NewHTTPError(http.StatusBadRequest, "to is before from")
	}

	rounds := []models.RoundKPI{}
	q := h.db.NewSelect().
		Model(&rounds).
		OrderExpr("k.date_played DESC, k.round_id DESC")

	if from != nil {
		q = q.Where("k.date_played >= ?", from.Format(time.DateOnly))
	}
	if to != nil {
		q = q.Where("k.date_played <= ?", to.Format(time.DateOnly))
	}
	if course := c.QueryParam("course"); course != "" {
		q = q.Where("k.course_name = ?", course)
	}
	if tee := c.QueryParam("tee"); tee != "" {
		q = q.Where("k.tee_name = ?", tee)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rounds)
}

// RoundHoles returns the hole-by-hole facts of one round.
func (h *Handler) RoundHoles(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	exists, err := h.db.NewSelect().Model((*models.Round)(nil)).
		Where("round_id = ?", id).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "round not found")
	}

	holes := []models.FactHoleStat{}
	err = h.db.NewSelect().Model(&holes).
		Where("f.round_id = ?", id).
		OrderExpr("f.hole_number ASC").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, holes)
}

// HoleSummary averages every recorded hole by course and hole number,
// optionally for one course only.
func (h *Handler) HoleSummary(c echo.Context) error {
	rows := []holeSummary{}
	q := h.db.NewSelect().
		TableExpr("fact_hole_stats AS f").
		ColumnExpr("f.course_name, f.hole_number, MAX(f.par) AS par").
		ColumnExpr("COUNT(*) AS played").
		ColumnExpr("AVG(f.strokes)::float8 AS avg_strokes, AVG(f.putts)::float8 AS avg_putts").
		ColumnExpr("AVG(f.score_to_par)::float8 AS avg_to_par").
		ColumnExpr("COUNT(*) FILTER (WHERE f.tee_shot = 'Fairway') AS fairways").
		ColumnExpr("COUNT(*) FILTER (WHERE f.bunker_found) AS bunkers").
		GroupExpr("f.course_name, f.hole_number").
		OrderExpr("f.course_name ASC, f.hole_number ASC")

	if course := c.QueryParam("course"); course != "" {
		q = q.Where("f.course_name = ?", course)
	}

	if err := q.Scan(c.Request().Context(), &rows); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rows)
}
