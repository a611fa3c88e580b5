package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noamsl/finboard/internal/aggregate"
	"github.com/noamsl/finboard/internal/docstore"
)

// CardRepository implements the card-transaction operations.
type CardRepository struct {
	writer
	conv *aggregate.Converter
	log  zerolog.Logger
}

// NewCardRepository creates a card repository. legacy selects the
// last-write-wins save path instead of compare-and-save.
func NewCardRepository(store docstore.Store, conv *aggregate.Converter, legacy bool, log zerolog.Logger) *CardRepository {
	return &CardRepository{
		writer: writer{store: store, legacy: legacy},
		conv:   conv,
		log:    log,
	}
}

// GetAll returns the card items of the selected month buckets. Pagination
// counts months: a page holds every item of its months, so page sizes vary.
func (r *CardRepository) GetAll(ctx context.Context, req CardListRequest) CardListResponse {
	resp := CardListResponse{CardItems: map[string]docstore.CardItem{}}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load document")
		resp.Error = err.Error()
		return resp
	}

	items := filterCards(doc.CardItems, req.Filter)
	buckets := aggregate.GroupByMonth(items, docstore.CardItem.When)

	keys := make([]aggregate.MonthKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}

	page, hasMore := aggregate.PageMonths(aggregate.SortMonthsDesc(keys), req.Pagination)
	for _, key := range page {
		for _, item := range buckets[key] {
			resp.CardItems[item.ID] = item
		}
	}
	resp.HasMore = hasMore

	return resp
}

// GetByID returns one card item.
func (r *CardRepository) GetByID(ctx context.Context, req IDRequest) CardItemResponse {
	var resp CardItemResponse

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	item, exists := doc.CardItems[req.ID]
	if !exists {
		resp.Error = fmt.Errorf("%w: card item %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	resp.CardItem = &item
	return resp
}

// Create stores a new card item, assigning an id when none was supplied.
func (r *CardRepository) Create(ctx context.Context, item docstore.CardItem) CardItemResponse {
	var resp CardItemResponse

	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	doc.CardItems[item.ID] = item

	if err := r.commit(ctx, generation, doc, docstore.Partial{CardItems: doc.CardItems}); err != nil {
		r.log.Error().Err(err).Str("id", item.ID).Msg("Failed to persist card item")
		resp.Error = err.Error()
		return resp
	}

	resp.CardItem = &item
	return resp
}

// Update replaces the stored entry wholesale. An item without an id fails
// validation; otherwise the entry is overwritten even if it did not exist.
func (r *CardRepository) Update(ctx context.Context, item docstore.CardItem) CardItemResponse {
	var resp CardItemResponse

	if item.ID == "" {
		resp.Error = fmt.Errorf("%w: missing id", docstore.ErrValidation).Error()
		return resp
	}

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	doc.CardItems[item.ID] = item

	if err := r.commit(ctx, generation, doc, docstore.Partial{CardItems: doc.CardItems}); err != nil {
		r.log.Error().Err(err).Str("id", item.ID).Msg("Failed to persist card item")
		resp.Error = err.Error()
		return resp
	}

	resp.CardItem = &item
	return resp
}

// Delete removes one card item. Deleting an absent id never writes.
func (r *CardRepository) Delete(ctx context.Context, req IDRequest) MutationResponse {
	var resp MutationResponse

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	if _, exists := doc.CardItems[req.ID]; !exists {
		resp.Error = fmt.Errorf("%w: card item %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	delete(doc.CardItems, req.ID)

	if err := r.commit(ctx, generation, doc, docstore.Partial{CardItems: doc.CardItems}); err != nil {
		r.log.Error().Err(err).Str("id", req.ID).Msg("Failed to delete card item")
		resp.Error = err.Error()
		return resp
	}

	resp.Success = true
	return resp
}

// GetMonthlyTotals aggregates the filtered card items into per-month totals
// in the base currency. Pagination counts totals rows, one per month.
func (r *CardRepository) GetMonthlyTotals(ctx context.Context, req CardTotalsRequest) TotalsResponse {
	resp := TotalsResponse{Totals: []aggregate.MonthlyTotal{}, Categories: []string{}}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	rows := cardRows(filterCards(doc.CardItems, req.Filter))
	totals := aggregate.MonthlyTotals(rows, r.conv)

	resp.Totals, resp.HasMore = aggregate.PageTotals(totals, req.Pagination)
	resp.Categories = aggregate.Categories(rows)

	return resp
}

// filterCards applies the card filter over a collection snapshot. An item
// without a parseable date only survives when no date bound is set.
func filterCards(items map[string]docstore.CardItem, filter CardFilter) []docstore.CardItem {
	out := make([]docstore.CardItem, 0, len(items))
	for _, item := range items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.PendingOnly && !item.PendingTransaction {
			continue
		}
		if filter.StartDate != "" || filter.EndDate != "" {
			t, ok := item.When()
			if !ok || !inDateRange(t, filter.StartDate, filter.EndDate) {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func cardRows(items []docstore.CardItem) []aggregate.Row {
	rows := make([]aggregate.Row, 0, len(items))
	for _, item := range items {
		t, ok := item.When()
		if !ok {
			continue
		}
		rows = append(rows, aggregate.Row{
			Date:     t,
			Amount:   item.Amount,
			Currency: item.Currency,
			Category: item.Category,
		})
	}
	return rows
}
