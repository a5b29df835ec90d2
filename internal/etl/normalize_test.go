package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
)

func TestNormalizeCountry(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Belgium BE", "Belgium"},
		{"belgium be", "belgium"},
		{"Portugal", "Portugal"},
		{"France FR extra", "France  extra"},
		{"IN", "IN"},
		{"BE Belgium", "BE Belgium"},
		{"  Spain ES  ", "Spain"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeCountry(tc.in), "input %q", tc.in)
	}
}

func TestValidRecord(t *testing.T) {
	cases := []struct {
		name string
		rec  models.RawRecord
		want bool
	}{
		{"available with positive price", models.RawRecord{"availability": true, "price": 9.99}, true},
		{"available with string price", models.RawRecord{"availability": true, "price": "12.50"}, true},
		{"unavailable", models.RawRecord{"availability": false, "price": 9.99}, false},
		{"availability as string", models.RawRecord{"availability": "true", "price": 9.99}, false},
		{"missing availability", models.RawRecord{"price": 9.99}, false},
		{"zero price", models.RawRecord{"availability": true, "price": float64(0)}, false},
		{"negative price", models.RawRecord{"availability": true, "price": -1.0}, false},
		{"unparseable price", models.RawRecord{"availability": true, "price": "n/a"}, false},
		{"missing price", models.RawRecord{"availability": true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidRecord(tc.rec))
		})
	}
}

func TestNormalizeRemapsFeedFields(t *testing.T) {
	p := Normalize(models.RawRecord{
		"country":      "Belgium BE",
		"brand":        "Acme",
		"sku":          "A-1",
		"model":        "Widget",
		"site":         "  shop.example  ",
		"categoryId":   float64(12),
		"price":        "19.99",
		"url":          "https://shop.example/a-1",
		"availability": true,
	})

	assert.Equal(t, "Belgium", p.Country)
	assert.Equal(t, "Acme", p.Brand)
	assert.Equal(t, "A-1", p.ProductID)
	assert.Equal(t, "Widget", p.ProductName)
	assert.Equal(t, "shop.example", p.ShopName)
	assert.Equal(t, 12, p.ProductCategoryID)
	assert.Equal(t, 19.99, p.Price)
	assert.Equal(t, "https://shop.example/a-1", p.URL)
}

func TestNormalizeFallsBackToMarketplaceSeller(t *testing.T) {
	p := Normalize(models.RawRecord{
		"sku":               "A-1",
		"marketplaceseller": "seller-42",
		"price":             5.0,
		"availability":      true,
	})
	assert.Equal(t, "seller-42", p.ShopName)
}

func TestNormalizeBatchFiltersAndDeduplicates(t *testing.T) {
	log := logger.NewNop()

	first := validRecord(1)
	first["price"] = 10.0
	duplicate := validRecord(1)
	duplicate["price"] = 99.0
	invalid := validRecord(2)
	invalid["availability"] = false

	out := NormalizeBatch([]models.RawRecord{first, duplicate, invalid, validRecord(3)}, log)

	require.Len(t, out, 2)
	// first occurrence wins within a batch
	assert.Equal(t, 10.0, out[0].Price)
	assert.Equal(t, "sku-1", out[0].ProductID)
	assert.Equal(t, "sku-3", out[1].ProductID)
}
