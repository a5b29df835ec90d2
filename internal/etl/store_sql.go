package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/luismelo4/ConsumerApp/pkg/models"
)

const productColumns = "country, brand, product_id, product_name, shop_name, product_category_id, price, url, created_at, updated_at"

// SQLProductStore implements ProductStore against SQL Server.
type SQLProductStore struct {
	db *sql.DB
}

func NewSQLProductStore(db *sql.DB) *SQLProductStore {
	return &SQLProductStore{db: db}
}

// CreateStaging creates the per-job staging table with a unique
// constraint on the dedup key, dropping any leftover table of the same
// name first.
func (s *SQLProductStore) CreateStaging(ctx context.Context, jobID string) error {
	table := models.StagingTableName(jobID)
	query := fmt.Sprintf(`
IF OBJECT_ID('%[1]s', 'U') IS NOT NULL
DROP TABLE %[1]s;
CREATE TABLE %[1]s (
  id INT IDENTITY(1,1) PRIMARY KEY,
  country NVARCHAR(50),
  brand NVARCHAR(100) NULL,
  product_id NVARCHAR(4000),
  product_name NVARCHAR(200) NULL,
  shop_name NVARCHAR(100),
  product_category_id INT NULL,
  price DECIMAL(10,2) NULL,
  url NVARCHAR(4000) NULL,
  created_at DATETIME2(6),
  updated_at DATETIME2(6),
  CONSTRAINT uc_%[1]s UNIQUE (country, product_id, shop_name)
);`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create staging table %s: %w", table, err)
	}
	return nil
}

// InsertStaging inserts the given products into the staging table with
// an insert-if-absent MERGE, so redelivered batches are no-ops.
func (s *SQLProductStore) InsertStaging(ctx context.Context, jobID string, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	table := models.StagingTableName(jobID)
	now := time.Now().UTC()

	rows := make([]string, 0, len(products))
	args := make([]interface{}, 0, len(products)*10)
	for i, p := range products {
		base := i * 10
		placeholders := make([]string, 10)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("@p%d", base+j+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, p.Country, p.Brand, p.ProductID, p.ProductName, p.ShopName,
			p.ProductCategoryID, p.Price, p.URL, now, now)
	}

	query := fmt.Sprintf(`
MERGE INTO %s AS target
USING (VALUES %s) AS source (%s)
ON target.country = source.country
AND target.product_id = source.product_id
AND target.shop_name = source.shop_name
WHEN NOT MATCHED BY TARGET THEN
  INSERT (%s)
  VALUES (source.country, source.brand, source.product_id, source.product_name, source.shop_name, source.product_category_id, source.price, source.url, source.created_at, source.updated_at);`,
		table, strings.Join(rows, ", "), productColumns, productColumns)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("staging insert into %s: %w", table, err)
	}
	return nil
}

// MergeStaging reconciles every staging row into the permanent products
// table: update on key match, insert otherwise.
func (s *SQLProductStore) MergeStaging(ctx context.Context, jobID string) error {
	table := models.StagingTableName(jobID)
	query := fmt.Sprintf(`
MERGE INTO %s AS target
USING %s AS source
ON target.product_id = source.product_id
AND target.country = source.country
AND target.shop_name = source.shop_name
WHEN MATCHED THEN
  UPDATE SET
    target.country = source.country,
    target.brand = source.brand,
    target.product_id = source.product_id,
    target.product_name = source.product_name,
    target.shop_name = source.shop_name,
    target.product_category_id = source.product_category_id,
    target.price = source.price,
    target.url = source.url,
    target.updated_at = source.updated_at
WHEN NOT MATCHED THEN
  INSERT (%s)
  VALUES (source.country, source.brand, source.product_id, source.product_name, source.shop_name, source.product_category_id, source.price, source.url, source.created_at, source.updated_at);`,
		models.ProductsTable, table, productColumns)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("merge %s into %s: %w", table, models.ProductsTable, err)
	}
	return nil
}

// DropStaging removes the per-job staging table.
func (s *SQLProductStore) DropStaging(ctx context.Context, jobID string) error {
	table := models.StagingTableName(jobID)
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)); err != nil {
		return fmt.Errorf("drop staging table %s: %w", table, err)
	}
	return nil
}
