// Package mongo provides a MongoDB implementation of the Palisade composite
// store using the grove ORM mongo driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
	"github.com/classboard/palisade/store"
)

// Collection name constants.
const (
	colGrants       = "palisade_grants"
	colBlocks       = "palisade_blocks"
	colRelations    = "palisade_relations"
	colDecisionLogs = "palisade_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Palisade store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all palisade collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("palisade/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all palisade collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colGrants: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "layer_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "layer_id", Value: 1}}},
		},
		colBlocks: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "label", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "block_key", Value: 1}}},
		},
		colRelations: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "source_id", Value: 1}, {Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "member_id", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "layer_id", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now()
	}
	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("palisade: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, palisade.ErrGrantNotFound)
		}
		return nil, fmt.Errorf("palisade: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) DeleteGrant(ctx context.Context, grantID id.GrantID) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"_id": grantID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grant: %w", err)
	}
	return nil
}

func (s *Store) FindGrant(ctx context.Context, tenantID, userID, layerID string) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID, "layer_id": layerID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("palisade: find grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) ListGrantsForUser(ctx context.Context, tenantID, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("palisade: list grants for user: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func grantFilter(filter *grant.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.LayerID != "" {
		f["layer_id"] = filter.LayerID
	}
	return f
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.mdb.NewFind(&models).
		Filter(grantFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(grantFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrantsByUser(ctx context.Context, tenantID, userID string) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grants by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByLayer(ctx context.Context, tenantID, layerID string) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID, "layer_id": layerID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete grants by layer: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
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
	var m blockModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": blockDocID(tenantID, key)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("block %s: %w", key, palisade.ErrBlockNotFound)
		}
		return nil, fmt.Errorf("palisade: get block: %w", err)
	}
	return blockFromModel(&m), nil
}

func (s *Store) AddBlock(ctx context.Context, tenantID string, b *block.Block) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	m := blockToModel(tenantID, b)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("block %s: %w", b.Key(), palisade.ErrBlockExists)
		}
		return fmt.Errorf("palisade: add block: %w", err)
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
	t := now()
	b.UpdatedAt = &t
	b.UpdatedBy = updatedBy

	m := blockToModel(tenantID, b)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.DocID}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("palisade: update block: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nil, fmt.Errorf("block %s: %w", key, palisade.ErrBlockNotFound)
	}
	return b, nil
}

func (s *Store) DeleteBlock(ctx context.Context, tenantID, key string) error {
	_, err := s.mdb.NewDelete((*blockModel)(nil)).
		Filter(bson.M{"_id": blockDocID(tenantID, key)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete block: %w", err)
	}
	return nil
}

func blockFilter(filter *block.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.Label != "" {
		f["label"] = filter.Label
	}
	if filter.Search != "" {
		f["block_key"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListBlocks(ctx context.Context, filter *block.ListFilter) ([]*block.Block, error) {
	var models []blockModel
	q := s.mdb.NewFind(&models).
		Filter(blockFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: list blocks: %w", err)
	}
	result := make([]*block.Block, len(models))
	for i := range models {
		result[i] = blockFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountBlocks(ctx context.Context, filter *block.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*blockModel)(nil)).
		Filter(blockFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count blocks: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteBlocksByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*blockModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
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

	// Set replaces the named sets wholesale.
	for name, members := range upd.Set {
		_, err := s.mdb.NewDelete((*relationModel)(nil)).
			Filter(bson.M{"tenant_id": tenantID, "source_id": sourceID, "name": name}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("palisade: set relations: %w", err)
		}
		if len(members) > 0 {
			models := make([]relationModel, len(members))
			for i, m := range members {
				models[i] = *relationToModel(tenantID, sourceID, name, m)
			}
			if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
				return fmt.Errorf("palisade: set relations: %w", err)
			}
		}
	}

	// Add unions members into each named set; re-adding overwrites the score.
	for name, members := range upd.Add {
		for _, m := range members {
			rm := relationToModel(tenantID, sourceID, name, m)
			_, err := s.mdb.NewDelete((*relationModel)(nil)).
				Filter(bson.M{"_id": rm.DocID}).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("palisade: add relations: %w", err)
			}
			if _, err := s.mdb.NewInsert(rm).Exec(ctx); err != nil {
				return fmt.Errorf("palisade: add relations: %w", err)
			}
		}
	}

	// Remove subtracts members by id.
	for name, memberIDs := range upd.Remove {
		if len(memberIDs) == 0 {
			continue
		}
		_, err := s.mdb.NewDelete((*relationModel)(nil)).
			Filter(bson.M{
				"tenant_id": tenantID,
				"source_id": sourceID,
				"name":      name,
				"member_id": bson.M{"$in": memberIDs},
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("palisade: remove relations: %w", err)
		}
	}
	return nil
}

func (s *Store) NavRelation(ctx context.Context, tenantID, sourceID, name, labelFilter string) (map[string]int, error) {
	f := bson.M{"tenant_id": tenantID, "source_id": sourceID, "name": name}
	if labelFilter != "" {
		f["member_id"] = bson.M{"$regex": "^" + labelFilter + ":"}
	}
	var models []relationModel
	if err := s.mdb.NewFind(&models).Filter(f).Scan(ctx); err != nil {
		return nil, fmt.Errorf("palisade: nav relation: %w", err)
	}
	result := make(map[string]int, len(models))
	for i := range models {
		result[models[i].MemberID] = models[i].Score
	}
	return result, nil
}

func (s *Store) DeleteRelations(ctx context.Context, tenantID, sourceID string) error {
	_, err := s.mdb.NewDelete((*relationModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID, "source_id": sourceID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete relations: %w", err)
	}
	return nil
}

func (s *Store) ListInboundRelations(ctx context.Context, tenantID, memberID string) ([]*relation.Edge, error) {
	var models []relationModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "member_id": memberID}).
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

func relationListFilter(filter *relation.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.SourceID != "" {
		f["source_id"] = filter.SourceID
	}
	if filter.Name != "" {
		f["name"] = filter.Name
	}
	if filter.MemberID != "" {
		f["member_id"] = filter.MemberID
	}
	return f
}

func (s *Store) ListRelations(ctx context.Context, filter *relation.ListFilter) ([]*relation.Edge, error) {
	var models []relationModel
	q := s.mdb.NewFind(&models).Filter(relationListFilter(filter))
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*relationModel)(nil)).
		Filter(relationListFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count relations: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRelationsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*relationModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
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
		e.CreatedAt = now()
	}
	m := decisionLogToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("palisade: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	var m decisionLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("decision log %s: not found", logID)
		}
		return nil, fmt.Errorf("palisade: get decision log: %w", err)
	}
	return decisionLogFromModel(&m), nil
}

func decisionLogFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.LayerID != "" {
		f["layer_id"] = filter.LayerID
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.mdb.NewFind(&models).
		Filter(decisionLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*decisionLogModel)(nil)).
		Filter(decisionLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("palisade: purge decision logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteDecisionLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("palisade: delete decision logs by tenant: %w", err)
	}
	return nil
}
