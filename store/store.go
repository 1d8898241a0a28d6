// Package store persists course and round aggregates with bun.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/golfstats/db"
	"github.com/padraicbc/golfstats/ingest"
	"github.com/padraicbc/golfstats/models"
)

// Store implements ingest.CourseStore and ingest.RoundStore.
type Store struct {
	db *bun.DB
}

var (
	_ ingest.CourseStore = (*Store)(nil)
	_ ingest.RoundStore  = (*Store)(nil)
)

// New creates a Store on the given database.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CourseExists reports whether a course with this name is stored.
func (s *Store) CourseExists(ctx context.Context, name string) (bool, error) {
	return s.db.NewSelect().Model((*models.Course)(nil)).
		Where("course_name = ?", name).
		Exists(ctx)
}

// RoundExists reports whether a round with this external id is stored.
func (s *Store) RoundExists(ctx context.Context, externalID string) (bool, error) {
	return s.db.NewSelect().Model((*models.Round)(nil)).
		Where("round_external_id = ?", externalID).
		Exists(ctx)
}

// ResolveCourse returns the id of the named course.
func (s *Store) ResolveCourse(ctx context.Context, name string) (int, error) {
	var id int
	err := s.db.NewSelect().
		TableExpr("courses").
		Column("course_id").
		Where("course_name = ?", name).
		Limit(1).
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &ingest.ReferenceNotFoundError{Kind: "course", Name: name}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve course %q: %w", name, err)
	}
	return id, nil
}

// ResolveTee returns the id of the named tee of a course.
func (s *Store) ResolveTee(ctx context.Context, courseID int, name string) (int, error) {
	var id int
	err := s.db.NewSelect().
		TableExpr("tees").
		Column("tee_id").
		Where("course_id = ?", courseID).
		Where("tee_name = ?", name).
		Limit(1).
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &ingest.ReferenceNotFoundError{Kind: "tee", Name: name}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve tee %q: %w", name, err)
	}
	return id, nil
}

// CreateCourse writes the course, then its tees and holes, then the per-tee
// yardages, all in one transaction. A unique violation on the course name
// is reported as ingest.ErrAlreadyExists.
func (s *Store) CreateCourse(ctx context.Context, imp *ingest.CourseImport) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&imp.Course).Returning("course_id").Exec(ctx); err != nil {
			if isUniqueViolation(err, db.CourseNameConstraint) {
				return ingest.ErrAlreadyExists
			}
			return fmt.Errorf("insert course: %w", err)
		}
		courseID := imp.Course.CourseID

		teeIDs := make(map[string]int, len(imp.Tees))
		if len(imp.Tees) > 0 {
			for i := range imp.Tees {
				imp.Tees[i].CourseID = courseID
			}
			if _, err := tx.NewInsert().Model(&imp.Tees).Returning("tee_id").Exec(ctx); err != nil {
				return fmt.Errorf("insert tees: %w", err)
			}
			for _, t := range imp.Tees {
				teeIDs[t.TeeName] = t.TeeID
			}
		}

		if len(imp.Holes) > 0 {
			for i := range imp.Holes {
				imp.Holes[i].CourseID = courseID
			}
			if _, err := tx.NewInsert().Model(&imp.Holes).Returning("hole_id").Exec(ctx); err != nil {
				return fmt.Errorf("insert holes: %w", err)
			}
		}

		if len(imp.TeeHoles) == 0 {
			return nil
		}
		teeHoles := make([]models.TeeHole, 0, len(imp.TeeHoles))
		for _, th := range imp.TeeHoles {
			teeID, ok := teeIDs[th.TeeName]
			if !ok {
				return &ingest.ReferenceNotFoundError{Kind: "tee", Name: th.TeeName, Scope: imp.Course.CourseName}
			}
			teeHoles = append(teeHoles, models.TeeHole{TeeID: teeID, HoleNumber: th.HoleNumber, Yardage: th.Yardage})
		}
		if _, err := tx.NewInsert().Model(&teeHoles).Returning("tee_hole_id").Exec(ctx); err != nil {
			return fmt.Errorf("insert tee holes: %w", err)
		}
		return nil
	})
}

// CreateRound writes the round and its hole stats in one transaction. A
// unique violation on the external id is reported as ingest.ErrAlreadyExists.
func (s *Store) CreateRound(ctx context.Context, imp *ingest.RoundImport) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&imp.Round).Returning("round_id").Exec(ctx); err != nil {
			if isUniqueViolation(err, db.RoundExternalIDConstraint) {
				return ingest.ErrAlreadyExists
			}
			return fmt.Errorf("insert round: %w", err)
		}

		if len(imp.HoleStats) == 0 {
			return nil
		}
		for i := range imp.HoleStats {
			imp.HoleStats[i].RoundID = imp.Round.RoundID
		}
		if _, err := tx.NewInsert().Model(&imp.HoleStats).Returning("hole_stat_id").Exec(ctx); err != nil {
			return fmt.Errorf("insert hole stats: %w", err)
		}
		return nil
	})
}

// isUniqueViolation reports whether err is a unique_violation (23505) of the
// named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505" && pgErr.Field('n') == constraint
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") && strings.Contains(msg, constraint)
}
