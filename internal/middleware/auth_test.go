package middleware

import (
	"cashflip/internal/model"
	"cashflip/pkg/token"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuth(t *testing.T) {
	secret := []byte("k")
	player, _ := token.GenerateAccessToken(7, "", secret, time.Minute)
	admin, _ := token.GenerateAccessToken(1, model.RoleAdmin, secret, time.Minute)

	var gotID int
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		h      http.Handler
		want   int
		wantID int
	}{
		{"no header", "", Auth(secret)(ok), http.StatusUnauthorized, 0},
		{"bad token", "Bearer nope", Auth(secret)(ok), http.StatusUnauthorized, 0},
		{"player", "Bearer " + player, Auth(secret)(ok), http.StatusOK, 7},
		{"player on admin route", "Bearer " + player, Auth(secret)(RequireRole(model.RoleAdmin)(ok)), http.StatusForbidden, 0},
		{"admin on admin route", "Bearer " + admin, Auth(secret)(RequireRole(model.RoleAdmin)(ok)), http.StatusOK, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotID = 0
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			tc.h.ServeHTTP(w, r)
			if w.Code != tc.want {
				t.Fatalf("status=%d want=%d", w.Code, tc.want)
			}
			if gotID != tc.wantID {
				t.Fatalf("id=%d want=%d", gotID, tc.wantID)
			}
		})
	}
}
