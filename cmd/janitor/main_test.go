package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeDB struct {
	calls [][]any
	fail  string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, args)
	if f.fail != "" && strings.Contains(sql, f.fail) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	return pgconn.NewCommandTag("DELETE 3"), nil
}

func TestPurgeSummary(t *testing.T) {
	db := &fakeDB{}
	got := purge(context.Background(), db, 30)
	if got != "orphan acceptances: 3, tickets older than 30d: 3" {
		t.Fatalf("summary: %q", got)
	}
	if len(db.calls) != 2 || len(db.calls[1]) != 1 || db.calls[1][0] != 30 {
		t.Fatalf("calls: %v", db.calls)
	}
}

func TestPurgeContinuesAfterError(t *testing.T) {
	db := &fakeDB{fail: "rules_accepted"}
	got := purge(context.Background(), db, 60)
	if !strings.Contains(got, "orphan acceptances: error boom") || !strings.Contains(got, "older than 60d: 3") {
		t.Fatalf("summary: %q", got)
	}
}

func TestRetentionDays(t *testing.T) {
	t.Setenv("TICKET_RETENTION_DAYS", "")
	if retentionDays() != defaultRetentionDays {
		t.Fatal("default")
	}
	t.Setenv("TICKET_RETENTION_DAYS", "7")
	if retentionDays() != 7 {
		t.Fatal("override")
	}
	t.Setenv("TICKET_RETENTION_DAYS", "-1")
	if retentionDays() != defaultRetentionDays {
		t.Fatal("negative falls back")
	}
}
