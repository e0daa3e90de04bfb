// Package sqlite provides a SQLite implementation of the Palisade composite
// store, built on the grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
	"github.com/classboard/palisade/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Palisade store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("palisade/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("palisade/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", palisade.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	m, err := grantToModel(g)
	if err != nil {
		return fmt.Errorf("palisade: create grant: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("palisade: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.sdb.NewSelect(m).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, palisade.ErrGrantNotFound)
		}
		return nil, fmt.Errorf("palisade: get grant: %w", err)
	}
	return grantFromModel(m)
}

func (s *Store) DeleteGrant(ctx context.Context, grantID id.GrantID) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("id = ?", grantID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grant: %w", err)
	}
	return nil
}

func (s *Store) FindGrant(ctx context.Context, tenantID, userID, layerID string) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Where("layer_id = ?", layerID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("palisade: find grant: %w", err)
	}
	return grantFromModel(m)
}

func (s *Store) ListGrantsForUser(ctx context.Context, tenantID, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("palisade: list grants for user: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("palisade: list grants for user: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.LayerID != "" {
			q = q.Where("layer_id = ?", filter.LayerID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("palisade: list grants: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.LayerID != "" {
			q = q.Where("layer_id = ?", filter.LayerID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count grants: %w", err)
	}
	return int64(count), nil
}

func (s *Store) DeleteGrantsByUser(ctx context.Context, tenantID, userID string) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grants by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByLayer(ctx context.Context, tenantID, layerID string) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("layer_id = ?", layerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grants by layer: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grants by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Block operations
// ──────────────────────────────────────────────────

func (s *Store) GetBlock(ctx context.Context, tenantID, key string) (*block.Block, error) {
	m := new(blockModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("block_key = ?", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("block %s: %w", key, palisade.ErrBlockNotFound)
		}
		return nil, fmt.Errorf("palisade: get block: %w", err)
	}
	return blockFromModel(m)
}

func (s *Store) AddBlock(ctx context.Context, tenantID string, b *block.Block) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m, err := blockToModel(tenantID, b)
	if err != nil {
		return fmt.Errorf("palisade: add block: %w", err)
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, block_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: add block: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("block %s: %w", b.Key(), palisade.ErrBlockExists)
	}
	return nil
}

func (s *Store) UpdateBlock(ctx context.Context, tenantID, key string, attrs map[string]any, updatedBy string) (*block.Block, error) {
	b, err := s.GetBlock(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if b.Attributes == nil {
		b.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		b.Attributes[k] = v
	}
	now := time.Now().UTC()
	b.UpdatedAt = &now
	b.UpdatedBy = updatedBy

	m, err := blockToModel(tenantID, b)
	if err != nil {
		return nil, fmt.Errorf("palisade: update block: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return nil, fmt.Errorf("palisade: update block: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBlock(ctx context.Context, tenantID, key string) error {
	_, err := s.sdb.NewDelete((*blockModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("block_key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete block: %w", err)
	}
	return nil
}

func (s *Store) ListBlocks(ctx context.Context, filter *block.ListFilter) ([]*block.Block, error) {
	var models []blockModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Label != "" {
			q = q.Where("label = ?", filter.Label)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(block_key) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list blocks: %w", err)
	}
	result := make([]*block.Block, len(models))
	for i := range models {
		b, err := blockFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("palisade: list blocks: %w", err)
		}
		result[i] = b
	}
	return result, nil
}

func (s *Store) CountBlocks(ctx context.Context, filter *block.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*blockModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Label != "" {
			q = q.Where("label = ?", filter.Label)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(block_key) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count blocks: %w", err)
	}
	return int64(count), nil
}

func (s *Store) DeleteBlocksByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*blockModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete blocks by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Relation operations
// ──────────────────────────────────────────────────

func (s *Store) UpdateRelations(ctx context.Context, tenantID, sourceID string, upd *relation.Update) error {
	if upd == nil {
		return nil
	}
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("palisade: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	// Set replaces the named sets wholesale.
	for name, members := range upd.Set {
		_, err = tx.NewDelete((*relationModel)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("source_id = ?", sourceID).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("palisade: set relations: %w", err)
		}
		if len(members) > 0 {
			models := make([]relationModel, len(members))
			for i, m := range members {
				models[i] = relationModel{
					TenantID: tenantID,
					SourceID: sourceID,
					Name:     name,
					MemberID: m.ID,
					Score:    m.Score,
				}
			}
			if _, err = tx.NewInsert(&models).Exec(ctx); err != nil {
				return fmt.Errorf("palisade: set relations: %w", err)
			}
		}
	}

	// Add unions members into each named set, updating scores in place.
	for name, members := range upd.Add {
		for _, m := range members {
			rm := &relationModel{
				TenantID: tenantID,
				SourceID: sourceID,
				Name:     name,
				MemberID: m.ID,
				Score:    m.Score,
			}
			_, err = tx.NewInsert(rm).
				OnConflict("(tenant_id, source_id, name, member_id) DO UPDATE SET score = excluded.score").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("palisade: add relations: %w", err)
			}
		}
	}

	// Remove subtracts members by id.
	for name, memberIDs := range upd.Remove {
		for _, mid := range memberIDs {
			_, err = tx.NewDelete((*relationModel)(nil)).
				Where("tenant_id = ?", tenantID).
				Where("source_id = ?", sourceID).
				Where("name = ?", name).
				Where("member_id = ?", mid).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("palisade: remove relations: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("palisade: commit relations: %w", err)
	}
	return nil
}

func (s *Store) NavRelation(ctx context.Context, tenantID, sourceID, name, labelFilter string) (map[string]int, error) {
	var models []relationModel
	q := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("source_id = ?", sourceID).
		Where("name = ?", name)
	if labelFilter != "" {
		q = q.Where("member_id LIKE ?", labelFilter+":%")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: nav relation: %w", err)
	}
	result := make(map[string]int, len(models))
	for i := range models {
		result[models[i].MemberID] = models[i].Score
	}
	return result, nil
}

func (s *Store) DeleteRelations(ctx context.Context, tenantID, sourceID string) error {
	_, err := s.sdb.NewDelete((*relationModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("source_id = ?", sourceID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete relations: %w", err)
	}
	return nil
}

func (s *Store) ListInboundRelations(ctx context.Context, tenantID, memberID string) ([]*relation.Edge, error) {
	var models []relationModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("member_id = ?", memberID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("palisade: list inbound relations: %w", err)
	}
	result := make([]*relation.Edge, len(models))
	for i := range models {
		result[i] = relationFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListRelations(ctx context.Context, filter *relation.ListFilter) ([]*relation.Edge, error) {
	var models []relationModel
	q := s.sdb.NewSelect(&models)
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.SourceID != "" {
			q = q.Where("source_id = ?", filter.SourceID)
		}
		if filter.Name != "" {
			q = q.Where("name = ?", filter.Name)
		}
		if filter.MemberID != "" {
			q = q.Where("member_id = ?", filter.MemberID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list relations: %w", err)
	}
	result := make([]*relation.Edge, len(models))
	for i := range models {
		result[i] = relationFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRelations(ctx context.Context, filter *relation.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*relationModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.SourceID != "" {
			q = q.Where("source_id = ?", filter.SourceID)
		}
		if filter.Name != "" {
			q = q.Where("name = ?", filter.Name)
		}
		if filter.MemberID != "" {
			q = q.Where("member_id = ?", filter.MemberID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count relations: %w", err)
	}
	return int64(count), nil
}

func (s *Store) DeleteRelationsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*relationModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete relations by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := decisionLogToModel(e)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("palisade: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("decision log %s: not found", logID)
		}
		return nil, fmt.Errorf("palisade: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.LayerID != "" {
			q = q.Where("layer_id = ?", filter.LayerID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.LayerID != "" {
			q = q.Where("layer_id = ?", filter.LayerID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count decision logs: %w", err)
	}
	return int64(count), nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: purge decision logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // drivers without RowsAffected still purged
	}
	return n, nil
}

func (s *Store) DeleteDecisionLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*decisionLogModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete decision logs by tenant: %w", err)
	}
	return nil
}
