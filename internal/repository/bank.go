package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noamsl/finboard/internal/aggregate"
	"github.com/noamsl/finboard/internal/docstore"
)

// BankRepository implements the bank-transaction operations. It is
// structurally identical to the card repository; bank items additionally
// carry the running balance and are always flagged Bank.
type BankRepository struct {
	writer
	conv *aggregate.Converter
	log  zerolog.Logger
}

// NewBankRepository creates a bank repository.
func NewBankRepository(store docstore.Store, conv *aggregate.Converter, legacy bool, log zerolog.Logger) *BankRepository {
	return &BankRepository{
		writer: writer{store: store, legacy: legacy},
		conv:   conv,
		log:    log,
	}
}

// GetAll returns the bank items of the selected month buckets. Pagination
// counts months, not items.
func (r *BankRepository) GetAll(ctx context.Context, req BankListRequest) BankListResponse {
	resp := BankListResponse{BankItems: map[string]docstore.BankItem{}}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load document")
		resp.Error = err.Error()
		return resp
	}

	items := filterBanks(doc.BankItems, req.Filter)
	buckets := aggregate.GroupByMonth(items, docstore.BankItem.When)

	keys := make([]aggregate.MonthKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}

	page, hasMore := aggregate.PageMonths(aggregate.SortMonthsDesc(keys), req.Pagination)
	for _, key := range page {
		for _, item := range buckets[key] {
			resp.BankItems[item.ID] = item
		}
	}
	resp.HasMore = hasMore

	return resp
}

// GetByID returns one bank item.
func (r *BankRepository) GetByID(ctx context.Context, req IDRequest) BankItemResponse {
	var resp BankItemResponse

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	item, exists := doc.BankItems[req.ID]
	if !exists {
		resp.Error = fmt.Errorf("%w: bank item %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	resp.BankItem = &item
	return resp
}

// Create stores a new bank item, assigning an id when none was supplied.
func (r *BankRepository) Create(ctx context.Context, item docstore.BankItem) BankItemResponse {
	var resp BankItemResponse

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Bank = true

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	doc.BankItems[item.ID] = item

	if err := r.commit(ctx, generation, doc, docstore.Partial{BankItems: doc.BankItems}); err != nil {
		r.log.Error().Err(err).Str("id", item.ID).Msg("Failed to persist bank item")
		resp.Error = err.Error()
		return resp
	}

	resp.BankItem = &item
	return resp
}

// Update replaces the stored entry wholesale; a blank id fails validation.
func (r *BankRepository) Update(ctx context.Context, item docstore.BankItem) BankItemResponse {
	var resp BankItemResponse

	if item.ID == "" {
		resp.Error = fmt.Errorf("%w: missing id", docstore.ErrValidation).Error()
		return resp
	}
	item.Bank = true

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	doc.BankItems[item.ID] = item

	if err := r.commit(ctx, generation, doc, docstore.Partial{BankItems: doc.BankItems}); err != nil {
		r.log.Error().Err(err).Str("id", item.ID).Msg("Failed to persist bank item")
		resp.Error = err.Error()
		return resp
	}

	resp.BankItem = &item
	return resp
}

// Delete removes one bank item. Deleting an absent id never writes.
func (r *BankRepository) Delete(ctx context.Context, req IDRequest) MutationResponse {
	var resp MutationResponse

	doc, generation, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	if _, exists := doc.BankItems[req.ID]; !exists {
		resp.Error = fmt.Errorf("%w: bank item %s", docstore.ErrNotFound, req.ID).Error()
		return resp
	}

	delete(doc.BankItems, req.ID)

	if err := r.commit(ctx, generation, doc, docstore.Partial{BankItems: doc.BankItems}); err != nil {
		r.log.Error().Err(err).Str("id", req.ID).Msg("Failed to delete bank item")
		resp.Error = err.Error()
		return resp
	}

	resp.Success = true
	return resp
}

// GetMonthlyTotals aggregates the filtered bank items into per-month totals.
// Pagination counts totals rows.
func (r *BankRepository) GetMonthlyTotals(ctx context.Context, req BankTotalsRequest) TotalsResponse {
	resp := TotalsResponse{Totals: []aggregate.MonthlyTotal{}, Categories: []string{}}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	rows := bankRows(filterBanks(doc.BankItems, req.Filter))
	totals := aggregate.MonthlyTotals(rows, r.conv)

	resp.Totals, resp.HasMore = aggregate.PageTotals(totals, req.Pagination)
	resp.Categories = aggregate.Categories(rows)

	return resp
}

func filterBanks(items map[string]docstore.BankItem, filter BankFilter) []docstore.BankItem {
	out := make([]docstore.BankItem, 0, len(items))
	for _, item := range items {
		if filter.Category != "" && item.Category != filter.Category {
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

func bankRows(items []docstore.BankItem) []aggregate.Row {
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
