package block

import "context"

// Store defines persistence operations for blocks. Blocks are addressed by
// their key, "label:id".
//
// Misses surface as palisade.ErrBlockNotFound (wrapped), duplicates as
// palisade.ErrBlockExists, so callers branch with errors.Is instead of
// exception-style control flow.
type Store interface {
	// GetBlock retrieves a block by key.
	GetBlock(ctx context.Context, tenantID, key string) (*Block, error)

	// AddBlock persists a new block. Fails when the key is already taken;
	// creation is a single atomic write.
	AddBlock(ctx context.Context, tenantID string, b *Block) error

	// UpdateBlock merges partial attributes into an existing block.
	// Attributes not named in attrs survive unchanged.
	UpdateBlock(ctx context.Context, tenantID, key string, attrs map[string]any, updatedBy string) (*Block, error)

	// DeleteBlock removes a block. Idempotent: deleting an absent block is
	// not an error.
	DeleteBlock(ctx context.Context, tenantID, key string) error

	// ListBlocks returns blocks matching the filter.
	ListBlocks(ctx context.Context, filter *ListFilter) ([]*Block, error)

	// CountBlocks returns the number of blocks matching the filter.
	CountBlocks(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteBlocksByTenant removes all blocks for a tenant.
	DeleteBlocksByTenant(ctx context.Context, tenantID string) error
}
