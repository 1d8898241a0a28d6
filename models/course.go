package models

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Course is a golf course, identified by its unique name.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	CourseID   int     `bun:"course_id,pk,autoincrement" json:"courseID"`
	CourseName string  `bun:"course_name,notnull" json:"courseName"`
	Location   *string `bun:"location" json:"location,omitempty"`
	Notes      *string `bun:"notes" json:"notes,omitempty"`
}

// Tee is a set of tee markers on a course. Names are unique per course.
type Tee struct {
	bun.BaseModel `bun:"table:tees,alias:t"`

	TeeID        int                 `bun:"tee_id,pk,autoincrement" json:"teeID"`
	CourseID     int                 `bun:"course_id,notnull" json:"courseID"`
	TeeName      string              `bun:"tee_name,notnull" json:"teeName"`
	CourseRating decimal.NullDecimal `bun:"course_rating,type:numeric(4,1)" json:"courseRating"`
	SlopeRating  *int                `bun:"slope_rating" json:"slopeRating,omitempty"`
	Yardage      *int                `bun:"yardage" json:"yardage,omitempty"`
}

// Hole holds the par for one hole of a course.
type Hole struct {
	bun.BaseModel `bun:"table:holes,alias:h"`

	HoleID     int `bun:"hole_id,pk,autoincrement" json:"holeID"`
	CourseID   int `bun:"course_id,notnull" json:"courseID"`
	HoleNumber int `bun:"hole_number,notnull" json:"holeNumber"`
	Par        int `bun:"par,notnull" json:"par"`
}

// TeeHole is the yardage of a hole when played from a given tee.
type TeeHole struct {
	bun.BaseModel `bun:"table:tee_holes,alias:th"`

	TeeHoleID  int `bun:"tee_hole_id,pk,autoincrement" json:"teeHoleID"`
	TeeID      int `bun:"tee_id,notnull" json:"teeID"`
	HoleNumber int `bun:"hole_number,notnull" json:"holeNumber"`
	Yardage    int `bun:"yardage,notnull" json:"yardage"`
}
