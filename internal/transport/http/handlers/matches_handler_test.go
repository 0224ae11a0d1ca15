package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	swipesvc "github.com/ivankudzin/loveconnect/backend/internal/services/swipes"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
)

func TestMatchStatusFollowsLedger(t *testing.T) {
	ledger := newLedgerStub(model.Card{ID: 101}, model.Card{ID: 202})
	service := swipesvc.NewService(swipesvc.Dependencies{Store: ledger}, swipesvc.Config{})
	h := NewMatchesHandler(service, nil)
	ctx := context.Background()

	if _, err := service.Record(ctx, 101, 202, "like"); err != nil {
		t.Fatalf("record like: %v", err)
	}
	if got := performMatchStatus(t, h, 101, "202"); got.IsMatch {
		t.Fatalf("one-sided like must not be a match")
	}

	if _, err := service.Record(ctx, 202, 101, "like"); err != nil {
		t.Fatalf("record reverse like: %v", err)
	}
	for _, tc := range []struct {
		viewer int64
		other  string
	}{{101, "202"}, {202, "101"}} {
		got := performMatchStatus(t, h, tc.viewer, tc.other)
		if !got.IsMatch {
			t.Fatalf("match must be visible to user %d", tc.viewer)
		}
	}

	if _, err := service.Record(ctx, 101, 202, "dislike"); err != nil {
		t.Fatalf("record dislike: %v", err)
	}
	if got := performMatchStatus(t, h, 202, "101"); got.IsMatch {
		t.Fatalf("dislike must undo the match")
	}
}

func TestMatchStatusRejectsBadInput(t *testing.T) {
	ledger := newLedgerStub(model.Card{ID: 101})
	h := NewMatchesHandler(swipesvc.NewService(swipesvc.Dependencies{Store: ledger}, swipesvc.Config{}), nil)

	for _, raw := range []string{"", "abc", "-4", "0", "101"} {
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/users/matches/"+raw, nil), 101)
		req = req.WithContext(withURLParam(req.Context(), "user_id", raw))
		rec := httptest.NewRecorder()
		h.Status(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("user_id %q: unexpected status: got %d want %d", raw, rec.Code, http.StatusBadRequest)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/matches/202", nil)
	h.Status(rec, req.WithContext(withURLParam(req.Context(), "user_id", "202")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status without identity: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func performMatchStatus(t *testing.T, h *MatchesHandler, viewer int64, other string) dto.MatchStatusResponse {
	t.Helper()

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/users/matches/"+other, nil), viewer)
	req = req.WithContext(withURLParam(req.Context(), "user_id", other))
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("match status: unexpected status: got %d want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var payload dto.MatchStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode match status: %v", err)
	}
	return payload
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}
