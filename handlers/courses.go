package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/golfstats/models"
)

type holeData struct {
	HoleNumber int `json:"holeNumber"`
	Par        int `json:"par"`
	// Yardages maps tee name to the hole's length from that tee.
	Yardages map[string]int `json:"yardages"`
}

// teeYardageRow is a flat scan target for the tee_holes/tees join.
type teeYardageRow struct {
	TeeName    string `bun:"tee_name"`
	HoleNumber int    `bun:"hole_number"`
	Yardage    int    `bun:"yardage"`
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

// Courses returns all courses, optionally filtered by a name fragment.
func (h *Handler) Courses(c echo.Context) error {
	courses := []models.Course{}
	q := h.db.NewSelect().
		Model(&courses).
		OrderExpr("c.course_name ASC")

	if name := c.QueryParam("q"); name != "" {
		q = q.Where("c.course_name ILIKE ?", "%"+name+"%")
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, courses)
}

func (h *Handler) requireCourse(c echo.Context) (int, error) {
	id, err := idParam(c)
	if err != nil {
		return 0, err
	}
	exists, err := h.db.NewSelect().Model((*models.Course)(nil)).
		Where("course_id = ?", id).
		Exists(c.Request().Context())
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return 0, echo.NewHTTPError(http.StatusNotFound, "course not found")
	}
	return id, nil
}

// CourseTees returns the tees of one course.
func (h *Handler) CourseTees(c echo.Context) error {
	id, err := h.requireCourse(c)
	if err != nil {
		return err
	}

	tees := []models.Tee{}
	err = h.db.NewSelect().Model(&tees).
		Where("t.course_id = ?", id).
		OrderExpr("t.yardage DESC NULLS LAST, t.tee_name ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, tees)
}

// CourseHoles returns the par of each hole of a course with its yardage
// from every tee that has one.
func (h *Handler) CourseHoles(c echo.Context) error {
	id, err := h.requireCourse(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var holes []models.Hole
	err = h.db.NewSelect().Model(&holes).
		Where("h.course_id = ?", id).
		OrderExpr("h.hole_number ASC").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var yardages []teeYardageRow
	err = h.db.NewSelect().
		TableExpr("tee_holes AS th").
		ColumnExpr("t.tee_name, th.hole_number, th.yardage").
		Join("INNER JOIN tees AS t ON t.tee_id = th.tee_id").
		Where("t.course_id = ?", id).
		Scan(ctx, &yardages)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	result := make([]holeData, len(holes))
	index := make(map[int]int, len(holes))
	for i, hl := range holes {
		result[i] = holeData{HoleNumber: hl.HoleNumber, Par: hl.Par, Yardages: map[string]int{}}
		index[hl.HoleNumber] = i
	}
	for _, y := range yardages {
		if i, ok := index[y.HoleNumber]; ok {
			result[i].Yardages[y.TeeName] = y.Yardage
		}
	}

	return c.JSON(http.StatusOK, result)
}
