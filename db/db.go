package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/golfstats/config"
	"github.com/padraicbc/golfstats/models"
)

// Unique constraints on natural keys. The store matches violations of these
// by name to tell a duplicate aggregate from any other failure.
const (
	CourseNameConstraint      = "courses_course_name_unique"
	RoundExternalIDConstraint = "rounds_round_external_id_unique"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

type table struct {
	model       interface{}
	foreignKeys []string
}

var tables = []table{
	{model: (*models.User)(nil)},
	{model: (*models.Course)(nil)},
	{
		model:       (*models.Tee)(nil),
		foreignKeys: []string{`("course_id") REFERENCES "courses" ("course_id") ON DELETE CASCADE`},
	},
	{
		model:       (*models.Hole)(nil),
		foreignKeys: []string{`("course_id") REFERENCES "courses" ("course_id") ON DELETE CASCADE`},
	},
	{
		model:       (*models.TeeHole)(nil),
		foreignKeys: []string{`("tee_id") REFERENCES "tees" ("tee_id") ON DELETE CASCADE`},
	},
	{
		model: (*models.Round)(nil),
		foreignKeys: []string{
			`("course_id") REFERENCES "courses" ("course_id")`,
			`("tee_id") REFERENCES "tees" ("tee_id")`,
		},
	},
	{
		model:       (*models.HoleStat)(nil),
		foreignKeys: []string{`("round_id") REFERENCES "rounds" ("round_id") ON DELETE CASCADE`},
	},
}

var constraints = []struct{ name, table, columns string }{
	{CourseNameConstraint, "courses", "course_name"},
	{"tees_course_tee_name_unique", "tees", "course_id, tee_name"},
	{"holes_course_hole_unique", "holes", "course_id, hole_number"},
	{"tee_holes_tee_hole_unique", "tee_holes", "tee_id, hole_number"},
	{RoundExternalIDConstraint, "rounds", "round_external_id"},
	{"hole_stats_round_hole_unique", "hole_stats", "round_id, hole_number"},
}

// CreateTables creates all tables in dependency order, then the unique
// constraints and the reporting views. Every step is idempotent.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", t.model, err)
		}
	}

	for _, c := range constraints {
		stmt := fmt.Sprintf(
			`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s); END IF; END $$`,
			c.name, c.table, c.name, c.columns,
		)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("constraint %s: %w", c.name, err)
		}
	}

	return CreateViews(ctx, db)
}

const factHoleStatsView = `CREATE OR REPLACE VIEW fact_hole_stats AS
SELECT hs.hole_stat_id, hs.round_id, r.round_external_id, r.date_played,
       r.course_id, c.course_name, t.tee_name, hs.hole_number,
       h.par, th.yardage, hs.strokes, hs.putts, hs.strokes - h.par AS score_to_par,
       hs.tee_shot, hs.approach, hs.tee_club, hs.approach_club,
       hs.bunker_found, hs.out_of_bounds_count
FROM hole_stats hs
JOIN rounds r ON r.round_id = hs.round_id
JOIN courses c ON c.course_id = r.course_id
JOIN tees t ON t.tee_id = r.tee_id
LEFT JOIN holes h ON h.course_id = r.course_id AND h.hole_number = hs.hole_number
LEFT JOIN tee_holes th ON th.tee_id = r.tee_id AND th.hole_number = hs.hole_number`

// A green in regulation is reached in par-2 strokes or fewer, so strokes
// minus putts is compared against par-2.
const aggRoundKPIsView = `CREATE OR REPLACE VIEW agg_round_kpis AS
SELECT r.round_id, r.round_external_id, r.date_played, r.course_id, c.course_name,
       r.tee_id, t.tee_name, r.holes_played, r.round_type, r.round_format,
       COUNT(hs.hole_stat_id) AS holes_tracked,
       COALESCE(SUM(hs.strokes), 0) AS total_strokes,
       COALESCE(SUM(hs.putts), 0) AS total_putts,
       COALESCE(AVG(hs.putts), 0)::float8 AS avg_putts_per_hole,
       COUNT(hs.hole_stat_id) FILTER (WHERE hs.tee_shot = 'Fairway') AS fairways_hit,
       COUNT(hs.hole_stat_id) FILTER (WHERE hs.strokes - hs.putts <= h.par - 2) AS greens_in_reg,
       COALESCE(SUM(hs.out_of_bounds_count), 0) AS out_of_bounds_total
FROM rounds r
JOIN courses c ON c.course_id = r.course_id
JOIN tees t ON t.tee_id = r.tee_id
LEFT JOIN hole_stats hs ON hs.round_id = r.round_id
LEFT JOIN holes h ON h.course_id = r.course_id AND h.hole_number = hs.hole_number
GROUP BY r.round_id, c.course_name, t.tee_name`

// CreateViews (re)creates the reporting views read by the stats API.
func CreateViews(ctx context.Context, db bun.IDB) error {
	for name, stmt := range map[string]string{
		"fact_hole_stats": factHoleStatsView,
		"agg_round_kpis":  aggRoundKPIsView,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating view %s: %w", name, err)
		}
	}
	return nil
}
