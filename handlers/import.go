package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/golfstats/ingest"
	"github.com/padraicbc/golfstats/workbook"
)

type importResponse struct {
	File     string `json:"file"`
	Outcome  string `json:"outcome"`
	Key      string `json:"key,omitempty"`
	Rows     int    `json:"rows"`
	Archived string `json:"archived,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportCourses imports an uploaded course workbook (multipart field "file").
func (h *Handler) ImportCourses(c echo.Context) error {
	return h.importUpload(c, true)
}

// ImportRounds imports an uploaded round workbook (multipart field "file").
func (h *Handler) ImportRounds(c echo.Context) error {
	return h.importUpload(c, false)
}

func (h *Handler) importUpload(c echo.Context, course bool) error {
	up := h.uploads
	if up == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "imports are not enabled")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	name := filepath.Base(fh.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return echo.NewHTTPError(http.StatusBadRequest, "file must be an .xlsx workbook")
	}

	// the batch importer tells the kinds apart by name, so keep staged
	// uploads consistent with it
	isCourseName, _ := filepath.Match(up.CoursePattern, name)
	switch {
	case course && !isCourseName:
		name = "course_" + name
	case !course && isCourseName:
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("round workbook names must not match %s", up.CoursePattern))
	}

	path := filepath.Join(up.Dir, name)
	if err := h.stage(fh, path); err != nil {
		return err
	}

	var res ingest.Result
	if course {
		res = up.Courses.ImportFile(c.Request().Context(), path)
	} else {
		res = up.Rounds.ImportFile(c.Request().Context(), path)
	}

	resp := importResponse{
		File:     res.File,
		Outcome:  res.Outcome.String(),
		Key:      res.Key,
		Rows:     res.Rows,
		Archived: res.Archived,
	}
	if res.Outcome != ingest.Failed {
		status := http.StatusOK
		if res.Outcome == ingest.Imported {
			status = http.StatusCreated
		}
		return c.JSON(status, resp)
	}

	// the uploader has the file; don't leave it blocking a corrected retry
	if res.Archived == "" {
		if err := up.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("remove failed upload", zap.String("file", path), zap.Error(err))
		}
	}
	resp.Error = res.Err.Error()
	return c.JSON(failureStatus(res.Err), resp)
}

// stage copies the upload into the input directory. An existing file of
// the same name is a conflict.
func (h *Handler) stage(fh *multipart.FileHeader, path string) error {
	up := h.uploads
	if err := up.Fs.MkdirAll(up.Dir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	dst, err := up.Fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return echo.NewHTTPError(http.StatusConflict,
				fmt.Sprintf("%s is already waiting in the input directory", filepath.Base(path)))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = up.Fs.Remove(path)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := dst.Close(); err != nil {
		_ = up.Fs.Remove(path)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return nil
}

func failureStatus(err error) int {
	var (
		verr    *ingest.ValidationError
		missing *ingest.MissingSheetError
		ref     *ingest.ReferenceNotFoundError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &missing), errors.As(err, &ref),
		errors.Is(err, workbook.ErrUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
