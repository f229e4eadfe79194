package validator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/boomdev/boom-scraper/internal/models"
)

// Validate checks a scraped record for the fields a downstream consumer
// needs and returns a normalized copy. The reason string names the first
// failing field when the record is rejected.
func Validate(record *models.ProductRecord) (bool, *models.ProductRecord, string) {
	if record == nil {
		return false, nil, "record is nil"
	}

	normalized := *record
	normalized.Title = strings.TrimSpace(record.Title)
	normalized.Price = strings.TrimSpace(record.Price)
	normalized.Currency = strings.ToUpper(strings.TrimSpace(record.Currency))
	normalized.Category = strings.TrimSpace(record.Category)
	normalized.Description = strings.TrimSpace(record.Description)

	if normalized.Title == "" {
		return false, nil, "title is empty"
	}

	price, err := strconv.ParseFloat(normalized.Price, 64)
	if err != nil {
		return false, nil, fmt.Sprintf("price %q is not a number", normalized.Price)
	}
	if price <= 0 {
		return false, nil, fmt.Sprintf("price %s is not positive", normalized.Price)
	}

	if len(normalized.Currency) != 3 || !isAlpha(normalized.Currency) {
		return false, nil, fmt.Sprintf("currency %q is not a three-letter code", normalized.Currency)
	}

	if len(normalized.Images) == 0 {
		return false, nil, "no images"
	}
	for _, img := range normalized.Images {
		if !isHTTPURL(img) {
			return false, nil, fmt.Sprintf("image URL %q is not absolute", img)
		}
	}

	if normalized.Category == "" {
		return false, nil, "category is empty"
	}
	if normalized.Description == "" {
		return false, nil, "description is empty"
	}

	if !isHTTPURL(normalized.SourceURL) {
		return false, nil, fmt.Sprintf("source URL %q is not absolute", normalized.SourceURL)
	}

	return true, &normalized, ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
