package handlers

import (
	"github.com/spf13/afero"
	"github.com/uptrace/bun"

	"github.com/padraicbc/golfstats/ingest"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db      *bun.DB
	JWTKey  []byte
	admins  []string
	uploads *Uploads
}

// Uploads is what the workbook upload routes need: where to stage files
// and the pipelines that import them.
type Uploads struct {
	Fs            afero.Fs
	Dir           string
	CoursePattern string
	Courses       *ingest.Pipeline[ingest.CourseImport]
	Rounds        *ingest.Pipeline[ingest.RoundImport]
}

// New creates a Handler. uploads may be nil, in which case the import routes
// answer 503.
func New(db *bun.DB, jwtKey []byte, admins []string, uploads *Uploads) *Handler {
	return &Handler{db: db, JWTKey: jwtKey, admins: admins, uploads: uploads}
}
