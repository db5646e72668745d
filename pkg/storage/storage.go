package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

var (
	ErrStudyNotFound = errors.New("study not found")
)

// Database defines the interface for persisting study runs.
type Database interface {
	// PutStudy creates or replaces a study.
	PutStudy(ctx context.Context, study types.Study) error
	GetStudy(ctx context.Context, id string) (types.Study, error)
	// ListStudies returns the summaries of the most recent studies, newest first.
	ListStudies(ctx context.Context, limit int) ([]types.StudySummary, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
