// Package repository implements the operations exposed over each collection
// of the tracker document: card transactions, bank transactions and trips.
// Every operation is a stateless load → compute/mutate → save cycle against
// the document store; failures are converted into the response's error string
// at this boundary and never propagate further.
package repository

import (
	"context"
	"time"

	"github.com/noamsl/finboard/internal/aggregate"
	"github.com/noamsl/finboard/internal/docstore"
)

// CardFilter narrows a card-item listing. All bounds are inclusive and
// combine as a logical AND.
type CardFilter struct {
	Category    string `json:"category,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	PendingOnly bool   `json:"pendingTransactionOnly,omitempty"`
}

// BankFilter narrows a bank-item listing.
type BankFilter struct {
	Category  string `json:"category,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// CardListRequest asks for card items. Pagination counts month buckets, not
// items.
type CardListRequest struct {
	Filter     CardFilter           `json:"filter"`
	Pagination aggregate.Pagination `json:"pagination"`
}

// BankListRequest asks for bank items. Pagination counts month buckets.
type BankListRequest struct {
	Filter     BankFilter           `json:"filter"`
	Pagination aggregate.Pagination `json:"pagination"`
}

// CardTotalsRequest asks for card monthly totals. Pagination counts totals
// rows directly, unlike the item listing.
type CardTotalsRequest struct {
	Filter     CardFilter           `json:"filter"`
	Pagination aggregate.Pagination `json:"pagination"`
}

// BankTotalsRequest asks for bank monthly totals.
type BankTotalsRequest struct {
	Filter     BankFilter           `json:"filter"`
	Pagination aggregate.Pagination `json:"pagination"`
}

// IDRequest targets one record by id.
type IDRequest struct {
	ID string `json:"id"`
}

// AssignRequest attaches card items to a trip.
type AssignRequest struct {
	TripID      string   `json:"tripId"`
	CardItemIDs []string `json:"cardItemIds"`
}

// UnassignRequest detaches card items from whatever trip they reference.
type UnassignRequest struct {
	CardItemIDs []string `json:"cardItemIds"`
}

// CardListResponse carries the items of the selected month buckets keyed by
// id, plus whether more buckets remain.
type CardListResponse struct {
	CardItems map[string]docstore.CardItem `json:"cardItems"`
	HasMore   bool                         `json:"hasMore"`
	Error     string                       `json:"error,omitempty"`
}

// BankListResponse mirrors CardListResponse for bank items.
type BankListResponse struct {
	BankItems map[string]docstore.BankItem `json:"bankItems"`
	HasMore   bool                         `json:"hasMore"`
	Error     string                       `json:"error,omitempty"`
}

// CardItemResponse carries one card item, or an error.
type CardItemResponse struct {
	CardItem *docstore.CardItem `json:"cardItem,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// BankItemResponse carries one bank item, or an error.
type BankItemResponse struct {
	BankItem *docstore.BankItem `json:"bankItem,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// MutationResponse reports a write without a payload.
type MutationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TotalsResponse carries the selected monthly-totals rows plus the distinct
// categories of the filtered snapshot.
type TotalsResponse struct {
	Totals     []aggregate.MonthlyTotal `json:"totals"`
	HasMore    bool                     `json:"hasMore"`
	Categories []string                 `json:"categories"`
	Error      string                   `json:"error,omitempty"`
}

// TripListResponse carries every trip keyed by id.
type TripListResponse struct {
	Trips map[string]docstore.Trip `json:"trips"`
	Error string                   `json:"error,omitempty"`
}

// TripResponse carries one trip, or an error.
type TripResponse struct {
	Trip  *docstore.Trip `json:"trip,omitempty"`
	Error string         `json:"error,omitempty"`
}

// AssignResponse reports how many card items an assign/unassign actually
// touched. Ids absent from the collection are skipped, not counted.
type AssignResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updatedCount"`
	Error        string `json:"error,omitempty"`
}

// writer holds the shared commit path of the mutating operations. In the
// default mode the mutated document is written back with the version observed
// at load, so a concurrent writer surfaces as a conflict error. In legacy
// mode the touched collections are merged over a fresh read with no version
// check, reproducing the original last-write-wins behavior.
type writer struct {
	store  docstore.Store
	legacy bool
}

func (w writer) commit(ctx context.Context, generation int64, doc *docstore.Document, partial docstore.Partial) error {
	if w.legacy {
		partial.Touch = true
		_, err := w.store.Save(ctx, partial)
		return err
	}
	_, err := w.store.CompareAndSave(ctx, generation, doc)
	return err
}

// inDateRange applies inclusive string date bounds to a timestamp. A
// date-only end bound covers the whole end day.
func inDateRange(t time.Time, startDate, endDate string) bool {
	if startDate != "" {
		start, ok := docstore.ParseDate(startDate)
		if ok && t.Before(start) {
			return false
		}
	}
	if endDate != "" {
		end, ok := docstore.ParseDate(endDate)
		if ok {
			if len(endDate) == len("2006-01-02") {
				end = end.Add(24*time.Hour - time.Nanosecond)
			}
			if t.After(end) {
				return false
			}
		}
	}
	return true
}
