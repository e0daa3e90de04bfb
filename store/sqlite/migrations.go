package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Palisade store (SQLite).
var Migrations = migrate.NewGroup("palisade")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS palisade_grants (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL,
    layer_id        TEXT NOT NULL,
    action          TEXT NOT NULL,
    granted_by      TEXT NOT NULL DEFAULT '',
    metadata        TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, user_id, layer_id)
);

CREATE INDEX IF NOT EXISTS idx_palisade_grants_user ON palisade_grants (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_palisade_grants_layer ON palisade_grants (tenant_id, layer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS palisade_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_blocks",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS palisade_blocks (
    tenant_id       TEXT NOT NULL,
    block_key       TEXT NOT NULL,
    block_id        TEXT NOT NULL,
    label           TEXT NOT NULL,
    attributes      TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    created_by      TEXT NOT NULL DEFAULT '',
    updated_at      TEXT,
    updated_by      TEXT NOT NULL DEFAULT '',

    PRIMARY KEY (tenant_id, block_key)
);

CREATE INDEX IF NOT EXISTS idx_palisade_blocks_label ON palisade_blocks (tenant_id, label);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS palisade_blocks`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_relations",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS palisade_relations (
    tenant_id       TEXT NOT NULL,
    source_id       TEXT NOT NULL,
    name            TEXT NOT NULL,
    member_id       TEXT NOT NULL,
    score           INTEGER NOT NULL DEFAULT 1,

    PRIMARY KEY (tenant_id, source_id, name, member_id)
);

CREATE INDEX IF NOT EXISTS idx_palisade_relations_source ON palisade_relations (tenant_id, source_id);
CREATE INDEX IF NOT EXISTS idx_palisade_relations_member ON palisade_relations (tenant_id, member_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS palisade_relations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS palisade_decision_logs (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL DEFAULT '',
    role            TEXT NOT NULL DEFAULT '',
    category        TEXT NOT NULL,
    layer_id        TEXT NOT NULL,
    variant         TEXT NOT NULL,
    action          TEXT NOT NULL,
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_palisade_logs_tenant ON palisade_decision_logs (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_palisade_logs_user ON palisade_decision_logs (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_palisade_logs_layer ON palisade_decision_logs (tenant_id, layer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS palisade_decision_logs`)
				return err
			},
		},
	)
}
