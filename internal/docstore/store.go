package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noamsl/finboard/internal/blob"
)

const contentType = "application/json"

// Partial names the top-level collections a Save should replace. Nil maps are
// left untouched in the stored document. Touch controls whether lastUpdate is
// bumped.
type Partial struct {
	CardItems map[string]CardItem
	BankItems map[string]BankItem
	Trips     map[string]Trip
	Touch     bool
}

// Store reads and writes the tracker document as one unit.
//
// Load returns the parsed document and its version (the blob generation).
// CompareAndSave writes the full document only if the stored version still
// matches, failing with ErrConflict otherwise. Save is the legacy
// last-write-wins path: it re-reads the current document, merges the given
// collections over it, and writes the result with no version check, so a
// concurrent writer's change can be silently discarded.
type Store interface {
	Load(ctx context.Context) (*Document, int64, error)
	Save(ctx context.Context, partial Partial) (*Document, error)
	CompareAndSave(ctx context.Context, expected int64, doc *Document) (int64, error)
}

// JSONStore is the Store implementation over a blob backend, owning the JSON
// (de)serialization contract of the stored document.
type JSONStore struct {
	blob   blob.Store
	object string
	log    zerolog.Logger
	now    func() time.Time
}

// NewJSONStore creates a store over the named object.
func NewJSONStore(b blob.Store, object string, log zerolog.Logger) *JSONStore {
	return &JSONStore{
		blob:   b,
		object: object,
		log:    log,
		now:    time.Now,
	}
}

// Load fetches and parses the document. A missing object yields an empty
// document at version 0 (first run). Entries missing their id are repaired
// from the map key and the repaired document is persisted immediately, so the
// migration happens once instead of on every read path.
func (s *JSONStore) Load(ctx context.Context) (*Document, int64, error) {
	for attempt := 0; ; attempt++ {
		data, generation, err := s.blob.Download(ctx, s.object)
		if err != nil {
			if errors.Is(err, blob.ErrNotExist) {
				return NewDocument(), 0, nil
			}
			return nil, 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		doc := NewDocument()
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}

		if !doc.Repair() {
			return doc, generation, nil
		}

		newGen, err := s.CompareAndSave(ctx, generation, doc)
		if err == nil {
			s.log.Info().Int64("generation", newGen).Msg("Persisted repaired document")
			return doc, newGen, nil
		}
		if errors.Is(err, ErrConflict) && attempt == 0 {
			// Someone else wrote between our read and the repair write;
			// their copy may already be repaired. Reload once.
			continue
		}
		// The read itself succeeded; do not fail it because the
		// migration write did not land.
		s.log.Warn().Err(err).Msg("Failed to persist repaired document")
		return doc, generation, nil
	}
}

// CompareAndSave serializes and writes the full document, guarded by the
// version observed at Load. lastUpdate is always bumped.
func (s *JSONStore) CompareAndSave(ctx context.Context, expected int64, doc *Document) (int64, error) {
	doc.LastUpdate = s.now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	generation, err := s.blob.Upload(ctx, s.object, data, contentType, &expected)
	if err != nil {
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return generation, nil
}

// Save is the legacy write path: re-read the current document immediately
// before writing, replace the collections named in partial, and write the
// merge back with no version check. Whoever saves last wins in full.
func (s *JSONStore) Save(ctx context.Context, partial Partial) (*Document, error) {
	doc, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if partial.CardItems != nil {
		doc.CardItems = partial.CardItems
	}
	if partial.BankItems != nil {
		doc.BankItems = partial.BankItems
	}
	if partial.Trips != nil {
		doc.Trips = partial.Trips
	}
	if partial.Touch {
		doc.LastUpdate = s.now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	if _, err := s.blob.Upload(ctx, s.object, data, contentType, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return doc, nil
}

var _ Store = (*JSONStore)(nil)
