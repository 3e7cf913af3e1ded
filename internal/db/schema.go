// Package db bootstraps the relational schema at startup so a fresh database
// is usable without a separate migration step.
package db

import (
	"context"
	"fmt"

	"server/internal/infra"
)

const schema = `--sql 74bf7aed-cc63-490d-baf4-8ee89fc2d366
create table if not exists accounts (
    user_id         text primary key,
    credits         int not null default 0 check (credits >= 0),
    plan            text not null default 'none',
    subscription_id text,
    created_at      timestamptz not null default now(),
    updated_at      timestamptz not null default now()
);

create index if not exists idx_accounts_subscription_id on accounts (subscription_id);

create table if not exists billing_events (
    event_id     text primary key,
    processed_at timestamptz not null default now()
);
`

// EnsureSchema applies the schema idempotently.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	if _, err := sql.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
