// Package api exposes the repository operations over HTTP. The surface is
// deliberately thin: one POST endpoint dispatching by operation name to a
// repository function, with the response serialized back as-is. Success and
// failure are both HTTP 200; callers check the response's error field.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noamsl/finboard/internal/docstore"
	"github.com/noamsl/finboard/internal/repository"
)

// Operation handles one named operation: decode the request payload, run it,
// return the serializable response.
type Operation func(ctx context.Context, payload json.RawMessage) any

// Server routes named operations to the repositories.
type Server struct {
	ops map[string]Operation
	log zerolog.Logger
}

// NewServer builds the operation table over the three repositories.
func NewServer(cards *repository.CardRepository, banks *repository.BankRepository, trips *repository.TripRepository, log zerolog.Logger) *Server {
	s := &Server{log: log}

	s.ops = map[string]Operation{
		"getCardItems": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.CardListRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return cards.GetAll(ctx, req)
		},
		"getCardItemById": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return cards.GetByID(ctx, req)
		},
		"createCardItem": func(ctx context.Context, payload json.RawMessage) any {
			var item docstore.CardItem
			if err := decode(payload, &item); err != nil {
				return errorBody(err)
			}
			return cards.Create(ctx, item)
		},
		"updateCardItem": func(ctx context.Context, payload json.RawMessage) any {
			var item docstore.CardItem
			if err := decode(payload, &item); err != nil {
				return errorBody(err)
			}
			return cards.Update(ctx, item)
		},
		"deleteCardItem": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return cards.Delete(ctx, req)
		},
		"getCardMonthlyTotals": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.CardTotalsRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return cards.GetMonthlyTotals(ctx, req)
		},

		"getBankItems": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.BankListRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return banks.GetAll(ctx, req)
		},
		"getBankItemById": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return banks.GetByID(ctx, req)
		},
		"createBankItem": func(ctx context.Context, payload json.RawMessage) any {
			var item docstore.BankItem
			if err := decode(payload, &item); err != nil {
				return errorBody(err)
			}
			return banks.Create(ctx, item)
		},
		"updateBankItem": func(ctx context.Context, payload json.RawMessage) any {
			var item docstore.BankItem
			if err := decode(payload, &item); err != nil {
				return errorBody(err)
			}
			return banks.Update(ctx, item)
		},
		"deleteBankItem": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return banks.Delete(ctx, req)
		},
		"getBankMonthlyTotals": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.BankTotalsRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return banks.GetMonthlyTotals(ctx, req)
		},

		"getTrips": func(ctx context.Context, _ json.RawMessage) any {
			return trips.GetAll(ctx)
		},
		"getTripById": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return trips.GetByID(ctx, req)
		},
		"createTrip": func(ctx context.Context, payload json.RawMessage) any {
			var trip docstore.Trip
			if err := decode(payload, &trip); err != nil {
				return errorBody(err)
			}
			return trips.Create(ctx, trip)
		},
		"updateTrip": func(ctx context.Context, payload json.RawMessage) any {
			var trip docstore.Trip
			if err := decode(payload, &trip); err != nil {
				return errorBody(err)
			}
			return trips.Update(ctx, trip)
		},
		"deleteTrip": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.IDRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return trips.Delete(ctx, req)
		},
		"assignCardItemsToTrip": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.AssignRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return trips.AssignCardItems(ctx, req)
		},
		"unassignCardItems": func(ctx context.Context, payload json.RawMessage) any {
			var req repository.UnassignRequest
			if err := decode(payload, &req); err != nil {
				return errorBody(err)
			}
			return trips.UnassignCardItems(ctx, req)
		},
	}

	return s
}

// Handler returns the HTTP handler serving the operations plus a health
// endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ops/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/api/ops/")
		op, exists := s.ops[name]
		if !exists {
			WriteError(w, http.StatusNotFound, "Unknown operation: "+name)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}

		WriteJSON(w, http.StatusOK, op(r.Context(), payload))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}

func decode(payload json.RawMessage, into any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, into)
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": "invalid request body: " + err.Error()}
}
