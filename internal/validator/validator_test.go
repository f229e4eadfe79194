package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomdev/boom-scraper/internal/models"
)

func validRecord() *models.ProductRecord {
	return &models.ProductRecord{
		Title:       "Test Product",
		Price:       "19.99",
		Currency:    "USD",
		Images:      []string{"https://img.temu.com/image1.jpg"},
		Category:    "Accessories",
		Description: "A great test product",
		SourceURL:   "https://www.temu.com/test-product.html",
		URL:         "https://www.temu.com/test-product.html",
	}
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	ok, normalized, reason := Validate(validRecord())

	require.True(t, ok, reason)
	assert.Equal(t, "Test Product", normalized.Title)
	assert.Empty(t, reason)
}

func TestValidateNormalizes(t *testing.T) {
	record := validRecord()
	record.Title = "  Test Product  "
	record.Currency = " usd "
	record.Price = " 19.99 "

	ok, normalized, _ := Validate(record)

	require.True(t, ok)
	assert.Equal(t, "Test Product", normalized.Title)
	assert.Equal(t, "USD", normalized.Currency)
	assert.Equal(t, "19.99", normalized.Price)
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	record := validRecord()
	record.Title = "  padded  "

	ok, _, _ := Validate(record)

	require.True(t, ok)
	assert.Equal(t, "  padded  ", record.Title)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ProductRecord)
		reason string
	}{
		{"empty title", func(r *models.ProductRecord) { r.Title = "  " }, "title"},
		{"non-numeric price", func(r *models.ProductRecord) { r.Price = "free" }, "price"},
		{"zero price", func(r *models.ProductRecord) { r.Price = "0" }, "price"},
		{"negative price", func(r *models.ProductRecord) { r.Price = "-5.00" }, "price"},
		{"bad currency", func(r *models.ProductRecord) { r.Currency = "dollars" }, "currency"},
		{"numeric currency", func(r *models.ProductRecord) { r.Currency = "US1" }, "currency"},
		{"no images", func(r *models.ProductRecord) { r.Images = nil }, "images"},
		{"relative image", func(r *models.ProductRecord) { r.Images = []string{"/img/1.jpg"} }, "image"},
		{"empty category", func(r *models.ProductRecord) { r.Category = "" }, "category"},
		{"empty description", func(r *models.ProductRecord) { r.Description = "" }, "description"},
		{"bad source URL", func(r *models.ProductRecord) { r.SourceURL = "not-a-url" }, "source URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(record)

			ok, normalized, reason := Validate(record)

			assert.False(t, ok)
			assert.Nil(t, normalized)
			assert.Contains(t, reason, tt.reason)
		})
	}
}

func TestValidateNilRecord(t *testing.T) {
	ok, _, reason := Validate(nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "nil")
}

func TestValidateEmptyRecordRejected(t *testing.T) {
	ok, _, _ := Validate(models.EmptyRecord("https://www.temu.com/x.html"))
	assert.False(t, ok)
}
