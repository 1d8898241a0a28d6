package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Round is one played round. RoundExternalID is supplied by the workbook and
// is what makes re-imports idempotent.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	RoundID         int       `bun:"round_id,pk,autoincrement" json:"roundID"`
	RoundExternalID string    `bun:"round_external_id,notnull" json:"roundExternalID"`
	CourseID        int       `bun:"course_id,notnull" json:"courseID"`
	TeeID           int       `bun:"tee_id,notnull" json:"teeID"`
	DatePlayed      time.Time `bun:"date_played,notnull,type:date" json:"datePlayed"`
	HolesPlayed     string    `bun:"holes_played,notnull" json:"holesPlayed"`
	Conditions      *string   `bun:"conditions" json:"conditions,omitempty"`
	RoundType       string    `bun:"round_type,notnull" json:"roundType"`
	RoundFormat     string    `bun:"round_format,notnull" json:"roundFormat"`
	Notes           *string   `bun:"notes" json:"notes,omitempty"`
}

// HoleStat is the hole-by-hole record of a round.
type HoleStat struct {
	bun.BaseModel `bun:"table:hole_stats,alias:hs"`

	HoleStatID       int     `bun:"hole_stat_id,pk,autoincrement" json:"holeStatID"`
	RoundID          int     `bun:"round_id,notnull" json:"roundID"`
	HoleNumber       int     `bun:"hole_number,notnull" json:"holeNumber"`
	Strokes          int     `bun:"strokes,notnull" json:"strokes"`
	Putts            int     `bun:"putts,notnull" json:"putts"`
	TeeShot          *string `bun:"tee_shot" json:"teeShot,omitempty"`
	Approach         *string `bun:"approach" json:"approach,omitempty"`
	TeeClub          *string `bun:"tee_club" json:"teeClub,omitempty"`
	ApproachClub     *string `bun:"approach_club" json:"approachClub,omitempty"`
	BunkerFound      bool    `bun:"bunker_found,notnull,default:false" json:"bunkerFound"`
	OutOfBoundsCount int     `bun:"out_of_bounds_count,notnull,default:0" json:"outOfBoundsCount"`
}
