package repository

import "github.com/noamsl/finboard/internal/docstore"

// Referential integrity between trips and card items. A card item holds a
// weak back-reference (tripId) to at most one trip; trips keep no member
// list. These helpers mutate the in-memory document only — the caller decides
// when the document is persisted, so a trip removal and the detachment of its
// items always land in the same save.

// detachTrip clears tripId on every card item referencing the trip and
// returns how many items were touched.
func detachTrip(doc *docstore.Document, tripID string) int {
	count := 0
	for id, item := range doc.CardItems {
		if item.TripID != tripID {
			continue
		}
		item.TripID = ""
		doc.CardItems[id] = item
		count++
	}
	return count
}

// assignTrip sets tripId on each listed card item that exists. Absent ids are
// skipped and not counted.
func assignTrip(doc *docstore.Document, tripID string, itemIDs []string) int {
	count := 0
	for _, id := range itemIDs {
		item, exists := doc.CardItems[id]
		if !exists {
			continue
		}
		// Re-assigning to a different trip just overwrites the value.
		item.TripID = tripID
		doc.CardItems[id] = item
		count++
	}
	return count
}

// unassignTrip clears tripId on each listed card item that exists and
// currently carries one. Absent or already-unassigned ids are skipped and not
// counted.
func unassignTrip(doc *docstore.Document, itemIDs []string) int {
	count := 0
	for _, id := range itemIDs {
		item, exists := doc.CardItems[id]
		if !exists || item.TripID == "" {
			continue
		}
		item.TripID = ""
		doc.CardItems[id] = item
		count++
	}
	return count
}
