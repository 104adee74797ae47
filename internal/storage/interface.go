package storage

import (
	"context"

	"xjsf/internal/models"
)

// RosterSource loads the client roster. The host reads it once at startup;
// nothing is written back while serving.
type RosterSource interface {
	// LoadRoster returns the stored roster. A nil roster with a nil error
	// means the source deliberately carries none.
	LoadRoster(ctx context.Context) (*models.Roster, error)

	// Close releases connections held by the source.
	Close() error
}

// RosterWriter is implemented by sources that can store a roster, which is
// how database-backed rosters are seeded from a file.
type RosterWriter interface {
	SaveRoster(ctx context.Context, roster *models.Roster) error
}
