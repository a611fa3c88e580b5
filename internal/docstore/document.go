// Package docstore owns the persisted document: its typed shape, the JSON
// contract of the stored blob, and the store that reads and writes it as one
// unit.
package docstore

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored documents carry amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// CardItem is a single card transaction. JSON field names are part of the
// stored-document contract and must not change.
type CardItem struct {
	ID                 string          `json:"id"`
	Date               string          `json:"Date"`
	Name               string          `json:"Name"`
	DisplayName        string          `json:"DisplayName,omitempty"`
	Amount             decimal.Decimal `json:"Amount"`
	Category           string          `json:"Category"`
	Currency           string          `json:"Currency"`
	PendingTransaction bool            `json:"PendingTransaction"`
	TripID             string          `json:"tripId,omitempty"`
}

// When parses the item's transaction timestamp. ok is false when the stored
// date cannot be parsed.
func (c CardItem) When() (time.Time, bool) {
	return ParseDate(c.Date)
}

// BankItem is a bank-account transaction: the card shape plus the running
// balance and the unparsed source date.
type BankItem struct {
	CardItem
	Balance decimal.Decimal `json:"Balance"`
	RawDate string          `json:"RawDate,omitempty"`
	Bank    bool            `json:"Bank"`
}

// Trip groups card transactions taken during one journey. Card items point at
// it through their tripId; the trip itself keeps no member list.
type Trip struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Document is the single persisted unit holding every collection.
type Document struct {
	CardItems  map[string]CardItem `json:"cardItems"`
	BankItems  map[string]BankItem `json:"bankItems"`
	Trips      map[string]Trip     `json:"trips"`
	LastUpdate string              `json:"lastUpdate"`
}

// NewDocument returns an empty document with all collections allocated.
func NewDocument() *Document {
	return &Document{
		CardItems: make(map[string]CardItem),
		BankItems: make(map[string]BankItem),
		Trips:     make(map[string]Trip),
	}
}

// Repair enforces the map-key/id self-consistency invariant: any entry whose
// value is missing its id gets the map key assigned, and nil collections are
// allocated. It reports whether anything changed so the caller can persist
// the repaired document once, at load time.
func (d *Document) Repair() bool {
	changed := false

	if d.CardItems == nil {
		d.CardItems = make(map[string]CardItem)
		changed = true
	}
	if d.BankItems == nil {
		d.BankItems = make(map[string]BankItem)
		changed = true
	}
	if d.Trips == nil {
		d.Trips = make(map[string]Trip)
		changed = true
	}

	for key, item := range d.CardItems {
		if item.ID == "" {
			item.ID = key
			d.CardItems[key] = item
			changed = true
		}
	}
	for key, item := range d.BankItems {
		if item.ID == "" {
			item.ID = key
			d.BankItems[key] = item
			changed = true
		}
	}
	for key, trip := range d.Trips {
		if trip.ID == "" {
			trip.ID = key
			d.Trips[key] = trip
			changed = true
		}
	}

	return changed
}

// Clone returns a deep copy of the document. Entries are value types, so
// copying the maps is enough.
func (d *Document) Clone() *Document {
	out := &Document{
		CardItems:  make(map[string]CardItem, len(d.CardItems)),
		BankItems:  make(map[string]BankItem, len(d.BankItems)),
		Trips:      make(map[string]Trip, len(d.Trips)),
		LastUpdate: d.LastUpdate,
	}
	for k, v := range d.CardItems {
		out.CardItems[k] = v
	}
	for k, v := range d.BankItems {
		out.BankItems[k] = v
	}
	for k, v := range d.Trips {
		out.Trips[k] = v
	}
	return out
}

// dateFormats lists the timestamp layouts seen in stored documents, most
// specific first.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a stored date string in local time. It accepts the ISO
// timestamp variants that appear in existing documents.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Local(), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
