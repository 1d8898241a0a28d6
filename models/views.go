package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RoundKPI is a row of the agg_round_kpis view.
type RoundKPI struct {
	bun.BaseModel `bun:"table:agg_round_kpis,alias:k"`

	RoundID          int       `bun:"round_id" json:"roundID"`
	RoundExternalID  string    `bun:"round_external_id" json:"roundExternalID"`
	DatePlayed       time.Time `bun:"date_played" json:"datePlayed"`
	CourseID         int       `bun:"course_id" json:"courseID"`
	CourseName       string    `bun:"course_name" json:"courseName"`
	TeeID            int       `bun:"tee_id" json:"teeID"`
	TeeName          string    `bun:"tee_name" json:"teeName"`
	HolesPlayed      string    `bun:"holes_played" json:"holesPlayed"`
	RoundType        string    `bun:"round_type" json:"roundType"`
	RoundFormat      string    `bun:"round_format" json:"roundFormat"`
	HolesTracked     int       `bun:"holes_tracked" json:"holesTracked"`
	TotalStrokes     int       `bun:"total_strokes" json:"totalStrokes"`
	TotalPutts       int       `bun:"total_putts" json:"totalPutts"`
	AvgPuttsPerHole  float64   `bun:"avg_putts_per_hole" json:"avgPuttsPerHole"`
	FairwaysHit      int       `bun:"fairways_hit" json:"fairwaysHit"`
	GreensInReg      int       `bun:"greens_in_reg" json:"greensInReg"`
	OutOfBoundsTotal int       `bun:"out_of_bounds_total" json:"outOfBoundsTotal"`
}

// FactHoleStat is a row of the fact_hole_stats view: a hole stat joined
// with its round, course, tee, par and yardage.
type FactHoleStat struct {
	bun.BaseModel `bun:"table:fact_hole_stats,alias:f"`

	HoleStatID       int       `bun:"hole_stat_id" json:"holeStatID"`
	RoundID          int       `bun:"round_id" json:"roundID"`
	RoundExternalID  string    `bun:"round_external_id" json:"roundExternalID"`
	DatePlayed       time.Time `bun:"date_played" json:"datePlayed"`
	CourseID         int       `bun:"course_id" json:"courseID"`
	CourseName       string    `bun:"course_name" json:"courseName"`
	TeeName          string    `bun:"tee_name" json:"teeName"`
	HoleNumber       int       `bun:"hole_number" json:"holeNumber"`
	Par              *int      `bun:"par" json:"par,omitempty"`
	Yardage          *int      `bun:"yardage" json:"yardage,omitempty"`
	Strokes          int       `bun:"strokes" json:"strokes"`
	Putts            int       `bun:"putts" json:"putts"`
	ScoreToPar       *int      `bun:"score_to_par" json:"scoreToPar,omitempty"`
	TeeShot          *string   `bun:"tee_shot" json:"teeShot,omitempty"`
	Approach         *string   `bun:"approach" json:"approach,omitempty"`
	TeeClub          *string   `bun:"tee_club" json:"teeClub,omitempty"`
	ApproachClub     *string   `bun:"approach_club" json:"approachClub,omitempty"`
	BunkerFound      bool      `bun:"bunker_found" json:"bunkerFound"`
	OutOfBoundsCount int       `bun:"out_of_bounds_count" json:"outOfBoundsCount"`
}
