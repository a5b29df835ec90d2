package models

import "time"

// RawRecord is one untyped record taken verbatim from the input stream.
// It only exists between decode and normalization.
type RawRecord = map[string]interface{}

// Product is a normalized feed record, as stored in both the products
// table and the products collection.
type Product struct {
	Country           string    `json:"country" bson:"country"`
	Brand             string    `json:"brand" bson:"brand"`
	ProductID         string    `json:"product_id" bson:"product_id"`
	ProductName       string    `json:"product_name" bson:"product_name"`
	ShopName          string    `json:"shop_name" bson:"shop_name"`
	ProductCategoryID int       `json:"product_category_id" bson:"product_category_id"`
	Price             float64   `json:"price" bson:"price"`
	URL               string    `json:"url" bson:"url"`
	CreatedAt         time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Key is the tuple that uniquely identifies a product across both stores.
type Key struct {
	Country   string
	ProductID string
	ShopName  string
}

// Key returns the product's dedup key.
func (p Product) Key() Key {
	return Key{Country: p.Country, ProductID: p.ProductID, ShopName: p.ShopName}
}

// Sink names, used in counter keys and task types.
const (
	SinkSQLServer = "sqlserver"
	SinkMongo     = "mongo"
)

// Task types dispatched to the batch queue.
const (
	TaskProcessBatchSQLServer = "process_batch_sqlserver"
	TaskProcessBatchMongo     = "process_batch_mongo"
)

// ProductsTable is the permanent relational table.
const ProductsTable = "products"

// ProductsCollection is the permanent document collection.
const ProductsCollection = "products"

// StagingTableName returns the name of the per-job staging table.
func StagingTableName(jobID string) string {
	return "temp_products_" + jobID
}
