// Package memory provides an in-memory implementation of the Palisade
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
	"github.com/classboard/palisade/store"
)

// Compile-time interface checks.
var (
	_ grant.Store       = (*Store)(nil)
	_ block.Store       = (*Store)(nil)
	_ relation.Store    = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
	_ store.Store       = (*Store)(nil)
)

// relSet is one stored relation: the member set of (tenant, source, name).
type relSet struct {
	tenantID string
	sourceID string
	name     string
	members  map[string]int
}

// Store is a thread-safe in-memory store for all Palisade entities.
type Store struct {
	mu sync.RWMutex

	grants       map[string]*grant.Grant       // grant ID -> grant
	blocks       map[string]*block.Block       // tenant/key -> block
	relations    map[string]*relSet            // tenant/source/name -> member set
	decisionLogs map[string]*decisionlog.Entry // entry ID -> entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		grants:       make(map[string]*grant.Grant),
		blocks:       make(map[string]*block.Block),
		relations:    make(map[string]*relSet),
		decisionLogs: make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID.String()] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", grantID, palisade.ErrGrantNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) DeleteGrant(_ context.Context, grantID id.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, grantID.String())
	return nil
}

func (s *Store) FindGrant(_ context.Context, tenantID, userID, layerID string) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.TenantID == tenantID && g.UserID == userID && g.LayerID == layerID {
			return copyGrant(g), nil
		}
	}
	return nil, nil
}

func (s *Store) ListGrantsForUser(_ context.Context, tenantID, userID string) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*grant.Grant
	for _, g := range s.grants {
		if g.TenantID == tenantID && g.UserID == userID {
			result = append(result, copyGrant(g))
		}
	}
	return result, nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if filter != nil {
			if filter.TenantID != "" && g.TenantID != filter.TenantID {
				continue
			}
			if filter.UserID != "" && g.UserID != filter.UserID {
				continue
			}
			if filter.LayerID != "" && g.LayerID != filter.LayerID {
				continue
			}
		}
		result = append(result, copyGrant(g))
	}
	return applyPagination(result, paginationOptsGrant(filter)), nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	var f grant.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListGrants(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteGrantsByUser(_ context.Context, tenantID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.grants {
		if g.TenantID == tenantID && g.UserID == userID {
			delete(s.grants, k)
		}
	}
	return nil
}

func (s *Store) DeleteGrantsByLayer(_ context.Context, tenantID, layerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.grants {
		if g.TenantID == tenantID && g.LayerID == layerID {
			delete(s.grants, k)
		}
	}
	return nil
}

func (s *Store) DeleteGrantsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.grants {
		if g.TenantID == tenantID {
			delete(s.grants, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Block Store
// ──────────────────────────────────────────────────

func (s *Store) GetBlock(_ context.Context, tenantID, key string) (*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[blockKey(tenantID, key)]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", key, palisade.ErrBlockNotFound)
	}
	return copyBlock(b), nil
}

func (s *Store) AddBlock(_ context.Context, tenantID string, b *block.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := blockKey(tenantID, b.Key())
	if _, ok := s.blocks[k]; ok {
		return fmt.Errorf("block %s: %w", b.Key(), palisade.ErrBlockExists)
	}
	s.blocks[k] = copyBlock(b)
	return nil
}

func (s *Store) UpdateBlock(_ context.Context, tenantID, key string, attrs map[string]any, updatedBy string) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[blockKey(tenantID, key)]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", key, palisade.ErrBlockNotFound)
	}
	if b.Attributes == nil {
		b.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		b.Attributes[k] = v
	}
	now := time.Now()
	b.UpdatedAt = &now
	b.UpdatedBy = updatedBy
	return copyBlock(b), nil
}

func (s *Store) DeleteBlock(_ context.Context, tenantID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, blockKey(tenantID, key))
	return nil
}

func (s *Store) ListBlocks(_ context.Context, filter *block.ListFilter) ([]*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*block.Block, 0, len(s.blocks))
	for k, b := range s.blocks {
		if filter != nil {
			if filter.TenantID != "" && !strings.HasPrefix(k, filter.TenantID+"/") {
				continue
			}
			if filter.Label != "" && b.Label != filter.Label {
				continue
			}
			if filter.Search != "" && !blockMatchesSearch(b, filter.Search) {
				continue
			}
		}
		result = append(result, copyBlock(b))
	}
	return applyPagination(result, paginationOptsBlock(filter)), nil
}

func (s *Store) CountBlocks(ctx context.Context, filter *block.ListFilter) (int64, error) {
	var f block.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListBlocks(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteBlocksByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := tenantID + "/"
	for k := range s.blocks {
		if strings.HasPrefix(k, prefix) {
			delete(s.blocks, k)
		}
	}
	return nil
}

func blockMatchesSearch(b *block.Block, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(b.ID), q) || strings.Contains(strings.ToLower(b.Label), q) {
		return true
	}
	if name, ok := b.Attributes["name"].(string); ok {
		return strings.Contains(strings.ToLower(name), q)
	}
	return false
}

// ──────────────────────────────────────────────────
// Relation Store
// ──────────────────────────────────────────────────

func (s *Store) UpdateRelations(_ context.Context, tenantID, sourceID string, upd *relation.Update) error {
	if upd == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Set replaces wholesale, then Add unions, then Remove subtracts, all
	// under one lock so readers never observe a partial update.
	for name, members := range upd.Set {
		rs := &relSet{
			tenantID: tenantID,
			sourceID: sourceID,
			name:     name,
			members:  make(map[string]int, len(members)),
		}
		for _, m := range members {
			rs.members[m.ID] = m.Score
		}
		s.relations[relKey(tenantID, sourceID, name)] = rs
	}
	for name, members := range upd.Add {
		rs := s.relationSetLocked(tenantID, sourceID, name)
		for _, m := range members {
			rs.members[m.ID] = m.Score
		}
	}
	for name, memberIDs := range upd.Remove {
		rs, ok := s.relations[relKey(tenantID, sourceID, name)]
		if !ok {
			continue
		}
		for _, mid := range memberIDs {
			delete(rs.members, mid)
		}
	}
	return nil
}

// relationSetLocked returns the member set for (tenant, source, name),
// creating it when absent. Caller holds the write lock.
func (s *Store) relationSetLocked(tenantID, sourceID, name string) *relSet {
	k := relKey(tenantID, sourceID, name)
	rs, ok := s.relations[k]
	if !ok {
		rs = &relSet{
			tenantID: tenantID,
			sourceID: sourceID,
			name:     name,
			members:  make(map[string]int),
		}
		s.relations[k] = rs
	}
	return rs
}

func (s *Store) NavRelation(_ context.Context, tenantID, sourceID, name, labelFilter string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.relations[relKey(tenantID, sourceID, name)]
	if !ok {
		return map[string]int{}, nil
	}
	result := make(map[string]int, len(rs.members))
	prefix := labelFilter + ":"
	for mid, score := range rs.members {
		if labelFilter != "" && !strings.HasPrefix(mid, prefix) {
			continue
		}
		result[mid] = score
	}
	return result, nil
}

func (s *Store) DeleteRelations(_ context.Context, tenantID, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rs := range s.relations {
		if rs.tenantID == tenantID && rs.sourceID == sourceID {
			delete(s.relations, k)
		}
	}
	return nil
}

func (s *Store) ListInboundRelations(_ context.Context, tenantID, memberID string) ([]*relation.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*relation.Edge
	for _, rs := range s.relations {
		if rs.tenantID != tenantID {
			continue
		}
		if score, ok := rs.members[memberID]; ok {
			result = append(result, &relation.Edge{
				TenantID: rs.tenantID,
				SourceID: rs.sourceID,
				Name:     rs.name,
				MemberID: memberID,
				Score:    score,
			})
		}
	}
	return result, nil
}

func (s *Store) ListRelations(_ context.Context, filter *relation.ListFilter) ([]*relation.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*relation.Edge
	for _, rs := range s.relations {
		if filter != nil {
			if filter.TenantID != "" && rs.tenantID != filter.TenantID {
				continue
			}
			if filter.SourceID != "" && rs.sourceID != filter.SourceID {
				continue
			}
			if filter.Name != "" && rs.name != filter.Name {
				continue
			}
		}
		for mid, score := range rs.members {
			if filter != nil && filter.MemberID != "" && mid != filter.MemberID {
				continue
			}
			result = append(result, &relation.Edge{
				TenantID: rs.tenantID,
				SourceID: rs.sourceID,
				Name:     rs.name,
				MemberID: mid,
				Score:    score,
			})
		}
	}
	return applyPagination(result, paginationOptsRel(filter)), nil
}

func (s *Store) CountRelations(ctx context.Context, filter *relation.ListFilter) (int64, error) {
	var f relation.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListRelations(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteRelationsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rs := range s.relations {
		if rs.tenantID == tenantID {
			delete(s.relations, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// DecisionLog Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionLogs[e.ID.String()] = copyEntry(e)
	return nil
}

func (s *Store) GetDecisionLog(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisionLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision log %s: %w", logID, errNotFound)
	}
	return copyEntry(e), nil
}

func (s *Store) ListDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0, len(s.decisionLogs))
	for _, e := range s.decisionLogs {
		if filter != nil {
			if filter.TenantID != "" && e.TenantID != filter.TenantID {
				continue
			}
			if filter.UserID != "" && e.UserID != filter.UserID {
				continue
			}
			if filter.LayerID != "" && e.LayerID != filter.LayerID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.Decision != "" && e.Decision != filter.Decision {
				continue
			}
			if filter.After != nil && e.CreatedAt.Before(*filter.After) {
				continue
			}
			if filter.Before != nil && e.CreatedAt.After(*filter.Before) {
				continue
			}
		}
		result = append(result, copyEntry(e))
	}
	return applyPagination(result, paginationOptsLog(filter)), nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	var f decisionlog.QueryFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListDecisionLogs(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeDecisionLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.decisionLogs {
		if e.CreatedAt.Before(before) {
			delete(s.decisionLogs, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteDecisionLogsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.decisionLogs {
		if e.TenantID == tenantID {
			delete(s.decisionLogs, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

var errNotFound = fmt.Errorf("not found")

func blockKey(tenantID, key string) string {
	return tenantID + "/" + key
}

func relKey(tenantID, sourceID, name string) string {
	return tenantID + "/" + sourceID + "#" + name
}

func copyGrant(g *grant.Grant) *grant.Grant {
	c := *g
	if g.Metadata != nil {
		c.Metadata = make(map[string]any, len(g.Metadata))
		for k, v := range g.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyBlock(b *block.Block) *block.Block {
	c := *b
	if b.Attributes != nil {
		c.Attributes = make(map[string]any, len(b.Attributes))
		for k, v := range b.Attributes {
			c.Attributes[k] = v
		}
	}
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func copyEntry(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	return &c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOptsGrant(f *grant.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsBlock(f *block.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsRel(f *relation.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsLog(f *decisionlog.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
