package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// chunkSize keeps every chunk document under the 1 MiB document limit.
const chunkSize = 900 * 1024

// FirestoreProvider implements the Database interface using Google Cloud Firestore.
//
// A study is stored as a "studies/{id}" document holding its summary, with the full study JSON
// split across a "chunks" subcollection since hourly series easily exceed the document size limit.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) studyDoc(id string) (*firestore.DocumentRef, error) {
	if id == "" {
		return nil, fmt.Errorf("study id cannot be empty")
	}
	return f.client.Collection("studies").Doc(id), nil
}

func chunkID(i int) string {
	return fmt.Sprintf("%04d", i)
}

// PutStudy stores the study and its chunks in one transaction. Chunks left over from a larger
// previous version are ignored on read.
func (f *FirestoreProvider) PutStudy(ctx context.Context, study types.Study) error {
	ref, err := f.studyDoc(study.ID)
	if err != nil {
		return err
	}
	study.Input = study.Input.WithoutRawData()
	data, err := json.Marshal(study)
	if err != nil {
		return fmt.Errorf("failed to marshal study: %w", err)
	}
	summary, err := json.Marshal(study.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal study summary: %w", err)
	}

	var chunks [][]byte
	for len(data) > 0 {
		n := min(chunkSize, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	err = f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(ref, map[string]interface{}{
			"summary":   string(summary),
			"chunks":    len(chunks),
			"version":   study.Version,
			"createdAt": study.CreatedAt,
			"timestamp": time.Now(),
		}); err != nil {
			return err
		}
		for i, c := range chunks {
			if err := tx.Set(ref.Collection("chunks").Doc(chunkID(i)), map[string]interface{}{
				"data": c,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save study: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "saved study", slog.String("studyID", study.ID), slog.Int("chunks", len(chunks)))
	return nil
}

// GetStudy reassembles a study from its chunks.
func (f *FirestoreProvider) GetStudy(ctx context.Context, id string) (types.Study, error) {
	ref, err := f.studyDoc(id)
	if err != nil {
		return types.Study{}, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Study{}, ErrStudyNotFound
		}
		return types.Study{}, fmt.Errorf("failed to fetch study doc: %w", err)
	}

	var count int
	if v, err := doc.DataAt("chunks"); err == nil {
		if vInt, ok := v.(int64); ok {
			count = int(vInt)
		}
	}
	if count == 0 {
		return types.Study{}, fmt.Errorf("study %s has no chunks", id)
	}

	iter := ref.Collection("chunks").
		OrderBy(firestore.DocumentID, firestore.Asc).
		Limit(count).
		Documents(ctx)
	defer iter.Stop()

	var data []byte
	var got int
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return types.Study{}, fmt.Errorf("failed to iterate study chunks: %w", err)
		}
		v, err := doc.DataAt("data")
		if err != nil {
			return types.Study{}, fmt.Errorf("study chunk missing 'data' field: %w", err)
		}
		b, ok := v.([]byte)
		if !ok {
			return types.Study{}, fmt.Errorf("study chunk 'data' field is not bytes")
		}
		data = append(data, b...)
		got++
	}
	if got != count {
		log.Ctx(ctx).WarnContext(ctx, "study chunks missing", slog.String("studyID", id), slog.Int("want", count), slog.Int("got", got))
		return types.Study{}, fmt.Errorf("study %s has %d of %d chunks", id, got, count)
	}

	var s types.Study
	if err := json.Unmarshal(data, &s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal study json", slog.String("studyID", id), slog.Any("err", err))
		return types.Study{}, fmt.Errorf("failed to unmarshal study json: %w", err)
	}
	return s, nil
}

// ListStudies reads only the summary field of each study document.
func (f *FirestoreProvider) ListStudies(ctx context.Context, limit int) ([]types.StudySummary, error) {
	q := f.client.Collection("studies").
		Select("summary").
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []types.StudySummary
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate studies: %w", err)
		}
		v, err := doc.DataAt("summary")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "study doc missing summary", slog.String("studyID", doc.Ref.ID))
			continue
		}
		str, ok := v.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "study summary not string", slog.String("studyID", doc.Ref.ID))
			continue
		}
		var s types.StudySummary
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal study summary", slog.String("studyID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
