package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRetentionDays = 60

const (
	sqlOrphanAcceptances = `
DELETE FROM rules_accepted ra
WHERE NOT EXISTS (SELECT 1 FROM rule_channels rc WHERE rc.channel_id = ra.channel_id);`

	sqlOldTickets = `
DELETE FROM open_tickets
WHERE created_at < now() - make_interval(days => $1);`
)

// execer lo cumple *pgxpool.Pool.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func retentionDays() int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("TICKET_RETENTION_DAYS"))); err == nil && n > 0 {
		return n
	}
	return defaultRetentionDays
}

// purge borra lo que quedó huérfano o viejo; sigue aunque falle un paso.
func purge(ctx context.Context, db execer, days int) string {
	parts := make([]string, 0, 2)
	run := func(label, q string, args ...any) {
		tag, err := db.Exec(ctx, q, args...)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%s: error %v", label, err))
			return
		}
		parts = append(parts, fmt.Sprintf("%s: %d", label, tag.RowsAffected()))
	}
	run("orphan acceptances", sqlOrphanAcceptances)
	run(fmt.Sprintf("tickets older than %dd", days), sqlOldTickets, days)
	return strings.Join(parts, ", ")
}

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return purge(cctx, pool, retentionDays()), nil
}

func main() { lambda.Start(handler) }
