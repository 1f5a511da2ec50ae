package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	other := errors.New("boom")
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, ErrLockTimeout},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "flip_sessions_one_open_per_player"}, ErrConflict},
		{"other pg error", &pgconn.PgError{Code: "23503"}, nil},
		{"other error", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err)
			switch {
			case tc.err == nil:
				if got != nil {
					t.Fatalf("got=%v want=nil", got)
				}
			case tc.want == nil:
				if !errors.Is(got, tc.err) || errors.Is(got, ErrConflict) {
					t.Fatalf("got=%v want passthrough of %v", got, tc.err)
				}
			default:
				if !errors.Is(got, tc.want) {
					t.Fatalf("got=%v want=%v", got, tc.want)
				}
			}
		})
	}
}
