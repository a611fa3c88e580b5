package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noamsl/finboard/internal/docstore"
)

// TripRepository implements the trip operations, including the cross-cutting
// ones that keep the card collection's tripId back-references consistent.
type TripRepository struct {
	writer
	log zerolog.Logger
	now func() time.Time
}

// NewTripRepository creates a trip repository.
func NewTripRepository(store docstore.Store, legacy bool, log zerolog.Logger) *TripRepository {
	return &TripRepository{
		writer: writer{store: store, legacy: legacy},
		log:    log,
		now:    time.Now,
	}
}

// GetAll returns every trip. The collection is small enough that trips are
// never paginated.
func (r *TripRepository) GetAll(ctx context.Context) TripListResponse {
	resp := TripListResponse{Trips: map[string]docstore.Trip{}}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load document")
		resp.Error = err.Error()
		return resp
	}

	resp.Trips = doc.Trips
	return resp
}

// GetByID returns one trip.
func (r *TripRepository) GetByID(ctx context.Context, req IDRequest) TripResponse {
	var resp TripResponse

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	trip, exists := doc.Trips[req.ID]
	if !exists {
		resp.Error = fmt.Errorf("%w: trip %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	resp.Trip = &trip
	return resp
}

// Create stores a new trip. The id and both timestamps are server-assigned;
// whatever the client sent for them is ignored.
func (r *TripRepository) Create(ctx context.Context, trip docstore.Trip) TripResponse {
	var resp TripResponse

	if trip.Name == "" {
		resp.Error = fmt.Errorf("%w: missing name", docstore.ErrValidation).Error()
		return resp
	}

	now := r.now().UTC().Format(time.RFC3339)
	trip.ID = uuid.New().String()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	doc.Trips[trip.ID] = trip

	if err := r.commit(ctx, generation, doc, docstore.Partial{Trips: doc.Trips}); err != nil {
		r.log.Error().Err(err).Str("id", trip.ID).Msg("Failed to persist trip")
		resp.Error = err.Error()
		return resp
	}

	resp.Trip = &trip
	return resp
}

// Update replaces a trip's client-editable fields. createdAt stays immutable
// and updatedAt is stamped by the server.
func (r *TripRepository) Update(ctx context.Context, trip docstore.Trip) TripResponse {
	var resp TripResponse

	if trip.ID == "" {
		resp.Error = fmt.Errorf("%w: missing id", docstore.ErrValidation).Error()
		return resp
	}

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	existing, exists := doc.Trips[trip.ID]
	if !exists {
		resp.Error = fmt.Errorf("%w: trip %s", docstore.ErrNotFound, trip.ID).Error()
		return resp
	}

	trip.CreatedAt = existing.CreatedAt
	trip.UpdatedAt = r.now().UTC().Format(time.RFC3339)
	doc.Trips[trip.ID] = trip

	if err := r.commit(ctx, generation, doc, docstore.Partial{Trips: doc.Trips}); err != nil {
		r.log.Error().Err(err).Str("id", trip.ID).Msg("Failed to persist trip")
		resp.Error = err.Error()
		return resp
	}

	resp.Trip = &trip
	return resp
}

// Delete removes a trip and detaches it from every card item that references
// it. The trip removal and the card updates land in the same document save.
func (r *TripRepository) Delete(ctx context.Context, req IDRequest) MutationResponse {
	var resp MutationResponse

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	if _, exists := doc.Trips[req.ID]; !exists {
		resp.Error = fmt.Errorf("%w: trip %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	delete(doc.Trips, req.ID)
	detached := detachTrip(doc, req.ID)

	partial := docstore.Partial{Trips: doc.Trips, CardItems: doc.CardItems}
	if err := r.commit(ctx, generation, doc, partial); err != nil {
		r.log.Error().Err(err).Str("id", req.ID).Msg("Failed to delete trip")
		resp.Error = err.Error()
		return resp
	}

	r.log.Info().Str("id", req.ID).Int("detached", detached).Msg("Trip deleted")

	resp.Success = true
	return resp
}

// AssignCardItems attaches the listed card items to a trip. The whole
// operation fails when the trip does not exist; ids absent from the card
// collection are skipped and not counted.
func (r *TripRepository) AssignCardItems(ctx context.Context, req AssignRequest) AssignResponse {
	var resp AssignResponse

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	if _, exists := doc.Trips[req.TripID]; !exists {
		resp.Error = fmt.Errorf("%w: %s", docstore.ErrTripNotFound, req.TripID).Error()
		return resp
	}

	updated := assignTrip(doc, req.TripID, req.CardItemIDs)
	if updated > 0 {
		if err := r.commit(ctx, generation, doc, docstore.Partial{CardItems: doc.CardItems}); err != nil {
			r.log.Error().Err(err).Str("tripId", req.TripID).Msg("Failed to persist assignment")
			resp.Error = err.Error()
			return resp
		}
	}

	resp.Success = true
	resp.UpdatedCount = updated
	return resp
}

// UnassignCardItems detaches the listed card items from whatever trip they
// reference. Ids that are absent or carry no tripId are skipped and not
// counted.
func (r *TripRepository) UnassignCardItems(ctx context.Context, req UnassignRequest) AssignResponse {
	var resp AssignResponse

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	updated := unassignTrip(doc, req.CardItemIDs)
	if updated > 0 {
		if err := r.commit(ctx, generation, doc, docstore.Partial{CardItems: doc.CardItems}); err != nil {
			r.log.Error().Err(err).Msg("Failed to persist unassignment")
			resp.Error = err.Error()
			return resp
		}
	}

	resp.Success = true
	resp.UpdatedCount = updated
	return resp
}
