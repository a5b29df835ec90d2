package etl

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/luismelo4/ConsumerApp/pkg/models"
)

const mongoWriteTimeout = 30 * time.Second

// MongoDocumentStore implements DocumentStore against the permanent
// products collection.
type MongoDocumentStore struct {
	client   *mongo.Client
	database string
}

func NewMongoDocumentStore(client *mongo.Client, database string) *MongoDocumentStore {
	return &MongoDocumentStore{client: client, database: database}
}

// BulkUpsert writes the products as update-or-insert operations
// filtered by the dedup key, so redelivery is idempotent.
func (m *MongoDocumentStore) BulkUpsert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		filter := bson.M{"country": p.Country, "product_id": p.ProductID, "shop_name": p.ShopName}
		update := bson.M{"$set": bson.M{
			"country":             p.Country,
			"brand":               p.Brand,
			"product_id":          p.ProductID,
			"product_name":        p.ProductName,
			"shop_name":           p.ShopName,
			"product_category_id": p.ProductCategoryID,
			"price":               p.Price,
			"url":                 p.URL,
			"updated_at":          now,
		}}
		writes = append(writes, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	writeCtx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()
	coll := m.client.Database(m.database).Collection(models.ProductsCollection)
	_, err := coll.BulkWrite(writeCtx, writes)
	return err
}
