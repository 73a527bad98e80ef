// Package store persists match reports so they can be listed and fetched
// after a run, by the CLI and by the HTTP API.
//
// Two backends are provided: [MemoryStore] for tests and single-process use,
// and [MongoStore] for a shared MongoDB deployment. Both return
// [ErrNotFound] for unknown report IDs.
package store

import (
	"context"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/report"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// ErrNotFound is returned when no report has the requested ID.
var ErrNotFound = errs.New(errs.ErrCodeReportNotFound, "report not found")

// Store saves and retrieves reports.
type Store interface {
	// Save stores r, replacing any report with the same ID.
	Save(ctx context.Context, r *report.Report) error

	// Get returns the report with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*report.Report, error)

	// List returns summaries of the most recent reports, newest first.
	List(ctx context.Context, limit int) ([]report.Summary, error)

	// Close releases backend resources.
	Close() error
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
