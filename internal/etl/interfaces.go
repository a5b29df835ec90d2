package etl

import (
	"context"

	"github.com/luismelo4/ConsumerApp/pkg/models"
)

// ProductStore is the relational side of the pipeline: a per-job
// staging table plus the permanent products table. All writes are
// idempotent by the (country, product_id, shop_name) key.
type ProductStore interface {
	CreateStaging(ctx context.Context, jobID string) error
	InsertStaging(ctx context.Context, jobID string, products []models.Product) error
	MergeStaging(ctx context.Context, jobID string) error
	DropStaging(ctx context.Context, jobID string) error
}

// DocumentStore is the document side: direct upserts against the
// permanent collection, keyed by the same tuple.
type DocumentStore interface {
	BulkUpsert(ctx context.Context, products []models.Product) error
}
