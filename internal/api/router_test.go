package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamsl/finboard/internal/blob"
	"github.com/noamsl/finboard/internal/docstore"
	"github.com/noamsl/finboard/internal/logger"
	"github.com/noamsl/finboard/internal/repository"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewWithWriter(testWriter{t})
	store := docstore.NewJSONStore(blob.NewMemory(), "doc.json", log)
	cards := repository.NewCardRepository(store, nil, false, log)
	banks := repository.NewBankRepository(store, nil, false, log)
	trips := repository.NewTripRepository(store, false, log)
	return NewServer(cards, banks, trips, log).Handler()
}

func post(t *testing.T, handler http.Handler, op, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ops/"+op, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_OperationDispatch(t *testing.T) {
	handler := newTestHandler(t)

	// Create, read back, list: three different operations against the same
	// document.
	rec := post(t, handler, "createCardItem", `{"id":"c1","Date":"2024-03-05","Name":"SUPERMARKET","Amount":-50,"Category":"Groceries","Currency":"NIS"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		CardItem *docstore.CardItem `json:"cardItem"`
		Error    string             `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Empty(t, created.Error)
	require.NotNil(t, created.CardItem)
	assert.Equal(t, "c1", created.CardItem.ID)

	rec = post(t, handler, "getCardItems", `{"filter":{"category":"Groceries"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		CardItems map[string]docstore.CardItem `json:"cardItems"`
		HasMore   bool                         `json:"hasMore"`
		Error     string                       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Empty(t, list.Error)
	assert.Contains(t, list.CardItems, "c1")
	assert.False(t, list.HasMore)
}

// Operation-level failures are HTTP 200 with the error in the body; callers
// distinguish success from failure by the error field alone.
func TestServer_ErrorsInBodyNotStatus(t *testing.T) {
	handler := newTestHandler(t)

	rec := post(t, handler, "getCardItemById", `{"id":"missing"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "not found")
}

func TestServer_UnknownOperation(t *testing.T) {
	handler := newTestHandler(t)

	rec := post(t, handler, "frobnicate", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ops/getTrips", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_InvalidBody(t *testing.T) {
	handler := newTestHandler(t)

	rec := post(t, handler, "getCardItemById", `{not json`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestServer_TripAssignFlow(t *testing.T) {
	handler := newTestHandler(t)

	rec := post(t, handler, "createTrip", `{"name":"Rome","location":"Italy"}`)
	var tripResp struct {
		Trip  *docstore.Trip `json:"trip"`
		Error string         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tripResp))
	require.Empty(t, tripResp.Error)

	post(t, handler, "createCardItem", `{"id":"c1","Date":"2024-03-05","Name":"HOTEL","Amount":-900,"Category":"Travel","Currency":"EUR"}`)

	rec = post(t, handler, "assignCardItemsToTrip", `{"tripId":"`+tripResp.Trip.ID+`","cardItemIds":["c1","ghost"]}`)
	var assign struct {
		Success      bool   `json:"success"`
		UpdatedCount int    `json:"updatedCount"`
		Error        string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assign))
	require.Empty(t, assign.Error)
	assert.True(t, assign.Success)
	assert.Equal(t, 1, assign.UpdatedCount)
}

func TestServer_Health(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
