package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luismelo4/ConsumerApp/internal/coordination"
	"github.com/luismelo4/ConsumerApp/internal/etl"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

const defaultPerPage = 10

// Server holds the API's injected dependencies.
type Server struct {
	log       *logger.Logger
	importer  *etl.Importer
	db        *sql.DB
	mongo     *mongo.Client
	mongoDB   string
	counters  coordination.Store
	uploadDir string
}

func NewServer(log *logger.Logger, importer *etl.Importer, db *sql.DB, mongoClient *mongo.Client, mongoDB string, counters coordination.Store, uploadDir string) *Server {
	return &Server{
		log:       log.With("component", "api"),
		importer:  importer,
		db:        db,
		mongo:     mongoClient,
		mongoDB:   mongoDB,
		counters:  counters,
		uploadDir: uploadDir,
	}
}

// UploadFile accepts a multipart product feed, stores it, and starts an
// import job for it.
func (s *Server) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No file uploaded."})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8], filepath.Ext(file.Filename))
	path := filepath.Join(s.uploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	jobID, err := s.importer.Start(c.Request.Context(), path)
	if err != nil {
		s.log.Error("failed to start import", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start import"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File upload started.", "job_id": jobID})
}

// ListProducts serves paginated listings from either store, selected by
// the src query parameter ("mongo" for the document store, anything
// else for the relational store).
func (s *Server) ListProducts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	per := queryInt(c, "per", defaultPerPage)
	country := c.Query("country")

	var (
		products []productResponse
		total    int64
		err      error
	)
	if c.Query("src") == "mongo" {
		products, total, err = s.listMongo(c, page, per, country)
	} else {
		products, total, err = s.listSQL(c, page, per, country)
	}
	if err != nil {
		s.log.Error("failed to list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	totalPages := total / int64(per)
	if total%int64(per) != 0 {
		totalPages++
	}
	c.JSON(http.StatusOK, gin.H{
		"products":     products,
		"current_page": page,
		"total_pages":  totalPages,
		"total_count":  total,
	})
}

// GetProduct serves a single relational row by its surrogate ID.
func (s *Server) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	const q = `SELECT id, country, brand, product_id, product_name, shop_name, product_category_id, price, url
FROM products WHERE id = @p1`
	row := s.db.QueryRowContext(c.Request.Context(), q, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		s.log.Error("failed to load product", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetImport exposes a read-only snapshot of the job's coordination
// counters.
func (s *Server) GetImport(c *gin.Context) {
	jobID := c.Param("job_id")
	ctx := c.Request.Context()

	status, err := s.counters.JobStatus(ctx, jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job status"})
		return
	}
	if status == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown job"})
		return
	}

	sinks := gin.H{}
	for _, sink := range []string{models.SinkSQLServer, models.SinkMongo} {
		enqueued, processed, err := s.counters.Counts(ctx, jobID, sink)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read counters"})
			return
		}
		inProgress, err := s.counters.InProgress(ctx, jobID, sink)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read counters"})
			return
		}
		sinks[sink] = gin.H{
			"batches_enqueued":  enqueued,
			"batches_processed": processed,
			"in_progress":       inProgress,
		}
	}

	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": status, "sinks": sinks})
}

type productResponse struct {
	ID                int64   `json:"id,omitempty"`
	Country           string  `json:"country"`
	Brand             string  `json:"brand"`
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	ShopName          string  `json:"shop_name"`
	ProductCategoryID int     `json:"product_category_id"`
	Price             float64 `json:"price"`
	URL               string  `json:"url"`
}

func (s *Server) listSQL(c *gin.Context, page, per int, country string) ([]productResponse, int64, error) {
	ctx := c.Request.Context()
	where := ""
	args := []interface{}{}
	if country != "" {
		where = " WHERE country = @p1"
		args = append(args, country)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT id, country, brand, product_id, product_name, shop_name, product_category_id, price, url
FROM products%s ORDER BY id OFFSET @p%d ROWS FETCH NEXT @p%d ROWS ONLY`, where, len(args)+1, len(args)+2)
	args = append(args, (page-1)*per, per)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []productResponse{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Server) listMongo(c *gin.Context, page, per int, country string) ([]productResponse, int64, error) {
	ctx := c.Request.Context()
	coll := s.mongo.Database(s.mongoDB).Collection(models.ProductsCollection)

	filter := bson.M{}
	if country != "" {
		filter["country"] = country
	}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSkip(int64((page - 1) * per)).
		SetLimit(int64(per)).
		SetSort(bson.M{"_id": 1})
	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	out := []productResponse{}
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, 0, err
		}
		out = append(out, productResponse{
			Country:           p.Country,
			Brand:             p.Brand,
			ProductID:         p.ProductID,
			ProductName:       p.ProductName,
			ShopName:          p.ShopName,
			ProductCategoryID: p.ProductCategoryID,
			Price:             p.Price,
			URL:               p.URL,
		})
	}
	return out, total, cursor.Err()
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scannable) (productResponse, error) {
	var (
		p          productResponse
		brand      sql.NullString
		name       sql.NullString
		categoryID sql.NullInt64
		price      sql.NullFloat64
		url        sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Country, &brand, &p.ProductID, &name, &p.ShopName, &categoryID, &price, &url); err != nil {
		return productResponse{}, err
	}
	p.Brand = brand.String
	p.ProductName = name.String
	p.ProductCategoryID = int(categoryID.Int64)
	p.Price = price.Float64
	p.URL = url.String
	return p, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
