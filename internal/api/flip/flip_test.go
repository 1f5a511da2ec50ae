package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type fakeService struct {
	startReq   model.StartSession
	confirm    bool
	lastID     string
	err        error
	verifyRes  *model.VerifyResult
	sessionRes *model.FlipSession
}

func (f *fakeService) Start(_ context.Context, req model.StartSession) (*model.StartedSession, error) {
	f.startReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.StartedSession{SessionID: "s-1", CommitmentHash: "abc", Stake: req.Stake}, nil
}

func (f *fakeService) Flip(_ context.Context, id string) (*model.FlipOutcome, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &model.FlipOutcome{
		FlipNumber:      1,
		Value:           decimal.NewFromInt(5),
		CashoutBalance:  decimal.NewFromInt(5),
		RemainingBudget: decimal.RequireFromString("25.5"),
		FairnessHash:    "hash",
	}, nil
}

func (f *fakeService) Cashout(_ context.Context, id string) (*model.CashoutResult, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &model.CashoutResult{Amount: decimal.NewFromInt(5), NewWalletBalance: decimal.NewFromInt(975)}, nil
}

func (f *fakeService) Pause(_ context.Context, id string, confirm bool) (*model.PauseResult, error) {
	f.lastID, f.confirm = id, confirm
	if f.err != nil {
		return nil, f.err
	}
	return &model.PauseResult{Fee: decimal.RequireFromString("0.5"), RemainingBalance: decimal.RequireFromString("4.5")}, nil
}

func (f *fakeService) Resume(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeService) Verify(_ context.Context, id string) (*model.VerifyResult, error) {
	f.lastID = id
	return f.verifyRes, f.err
}

func (f *fakeService) Current(context.Context) (*model.FlipSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessionRes, nil
}

func (f *fakeService) AutoFlipIdle(context.Context) (int, error) { return 0, nil }
func (f *fakeService) ExpireStale(context.Context) (int, error)  { return 0, nil }

func newRouter(serv service.FlipService) chi.Router {
	h := NewHandler(HandlerDeps{Serv: serv})
	r := chi.NewRouter()
	r.Post("/flip/start", h.Start)
	r.Get("/flip/session", h.Current)
	r.Post("/flip/{sessionID}/flip", h.Flip)
	r.Post("/flip/{sessionID}/cashout", h.Cashout)
	r.Post("/flip/{sessionID}/pause", h.Pause)
	r.Post("/flip/{sessionID}/resume", h.Resume)
	r.Get("/flip/{sessionID}/verify", h.Verify)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestStart(t *testing.T) {
	serv := &fakeService{}
	rec := do(newRouter(serv), http.MethodPost, "/flip/start", `{"stake":"10.5","currency":"USD","client_seed":"abc"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !serv.startReq.Stake.Equal(decimal.RequireFromString("10.5")) || serv.startReq.Currency != "USD" || serv.startReq.ClientSeed != "abc" {
		t.Fatalf("unexpected request passed to service: %+v", serv.startReq)
	}
	body := decodeBody(t, rec)
	if body["session_id"] != "s-1" || body["stake"] != "10.50" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStart_BadBody(t *testing.T) {
	rec := do(newRouter(&fakeService{}), http.MethodPost, "/flip/start", `{"stake":"1","bogus":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestFlip_PassesSessionID(t *testing.T) {
	serv := &fakeService{}
	rec := do(newRouter(serv), http.MethodPost, "/flip/sess-42/flip", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if serv.lastID != "sess-42" {
		t.Fatalf("session id=%q", serv.lastID)
	}
	body := decodeBody(t, rec)
	if body["remaining_budget"] != "25.50" || body["value"] != "5.00" || body["is_zero"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestPause_PassesConfirm(t *testing.T) {
	serv := &fakeService{}
	rec := do(newRouter(serv), http.MethodPost, "/flip/s-1/pause", `{"confirm":true}`)

	if rec.Code != http.StatusOK || !serv.confirm {
		t.Fatalf("status=%d confirm=%v", rec.Code, serv.confirm)
	}
	if body := decodeBody(t, rec); body["fee"] != "0.50" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestResume_NoContent(t *testing.T) {
	rec := do(newRouter(&fakeService{}), http.MethodPost, "/flip/s-1/resume", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not authenticated", service.ErrPlayerNotInContext, http.StatusUnauthorized, "unauthorized"},
		{"validation", service.ErrInvalidStake, http.StatusUnprocessableEntity, "validation_error"},
		{"no active session", service.ErrNoActiveSession, http.StatusConflict, "state_conflict"},
		{"max flips", service.ErrMaxFlipsReached, http.StatusConflict, "state_conflict"},
		{"funds", service.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
		{"busy", service.ErrSessionBusy, http.StatusServiceUnavailable, "try_again"},
		{"integrity", service.ErrInvalidConfig, http.StatusInternalServerError, "integrity_error"},
		{"wrapped", fmt.Errorf("flip: %w", service.ErrLockTimeout), http.StatusServiceUnavailable, "try_again"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newRouter(&fakeService{err: tc.err}), http.MethodPost, "/flip/s-1/cashout", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status=%d want=%d", rec.Code, tc.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["code"] != tc.wantCode {
				t.Fatalf("code=%v want=%s", body["code"], tc.wantCode)
			}
			if tc.wantStatus == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") == "" {
				t.Fatal("transient errors must set Retry-After")
			}
			if tc.wantCode == "internal_error" && body["error"] != "internal error" {
				t.Fatalf("internal error leaked: %v", body["error"])
			}
		})
	}
}

func TestVerify(t *testing.T) {
	res := &model.VerifyResult{
		Secret:     "secret",
		ClientSeed: "seed",
		Flips: []model.VerifiedFlip{
			{FlipNumber: 1, Value: decimal.NewFromInt(2), FairnessHash: "h1", Verified: true},
			{FlipNumber: 2, IsZero: true, FairnessHash: "h2", Verified: false},
		},
	}

	t.Run("ok", func(t *testing.T) {
		rec := do(newRouter(&fakeService{verifyRes: res}), http.MethodGet, "/flip/s-1/verify", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["secret"] != "secret" || body["code"] != nil {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("mismatch still returns flips", func(t *testing.T) {
		rec := do(newRouter(&fakeService{verifyRes: res, err: service.ErrFairnessMismatch}), http.MethodGet, "/flip/s-1/verify", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d", rec.Code)
		}
		body := decodeBody(t, rec)
		flips, _ := body["flips"].([]any)
		if len(flips) != 2 || body["code"] != "integrity_error" {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("still active", func(t *testing.T) {
		rec := do(newRouter(&fakeService{err: service.ErrSessionStillActive}), http.MethodGet, "/flip/s-1/verify", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("status=%d", rec.Code)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := do(newRouter(&fakeService{err: service.ErrSessionNotFound}), http.MethodGet, "/flip/s-1/verify", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status=%d", rec.Code)
		}
	})
}

func TestCurrent(t *testing.T) {
	sess := &model.FlipSession{ID: "s-9", Currency: "USD", Stake: decimal.NewFromInt(10), Status: model.SessionPaused}
	rec := do(newRouter(&fakeService{sessionRes: sess}), http.MethodGet, "/flip/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["session_id"] != "s-9" || body["status"] != "paused" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["secret"]; ok {
		t.Fatal("current session must not expose the secret")
	}
}
