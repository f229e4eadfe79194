package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/models"
)

// Extractor is the fixed per-site extraction contract. Each operation pulls
// one typed product field out of a fetched page, failing with an
// *ExtractionError when the expected markup is absent or unparseable.
type Extractor interface {
	Domain() string
	ExtractTitle(content *browser.FetchResult) (string, error)
	ExtractPrice(content *browser.FetchResult) (string, error)
	ExtractCurrency(content *browser.FetchResult) (string, error)
	ExtractImages(content *browser.FetchResult) ([]string, error)
	ExtractCategory(content *browser.FetchResult) (string, error)
	ExtractDescription(content *browser.FetchResult) (string, error)
	ExtractSpecifications(content *browser.FetchResult) (map[string]string, error)
	ExtractSizeInfo(content *browser.FetchResult) ([]string, error)
	ExtractColorOptions(content *browser.FetchResult) ([]string, error)
	ExtractReviewsSummary(content *browser.FetchResult) (models.ReviewsSummary, error)
}

func parseDoc(content *browser.FetchResult) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

var (
	priceStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")
	countPattern  = regexp.MustCompile(`\d+`)
)

// cleanPrice strips currency symbols and thousands separators and validates
// that the remainder parses as a decimal number.
func cleanPrice(raw string) (string, error) {
	cleaned := priceStripper.Replace(strings.TrimSpace(raw))
	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return "", invalidFormat("price", fmt.Sprintf("%q is not a decimal price", raw))
	}
	return cleaned, nil
}

// parseRating parses a review rating like "4.5".
func parseRating(raw string) (float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, invalidFormat("reviews_summary", fmt.Sprintf("%q is not a rating", raw))
	}
	return rating, nil
}

// parseReviewCount pulls the integer out of text like "123 reviews".
func parseReviewCount(raw string) (int, error) {
	digits := countPattern.FindString(raw)
	if digits == "" {
		return 0, invalidFormat("reviews_summary", fmt.Sprintf("no review count in %q", raw))
	}
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0, invalidFormat("reviews_summary", fmt.Sprintf("%q is not a review count", raw))
	}
	return count, nil
}

// imageSrc reads an image URL from src, falling back to the lazy-load
// data-src attribute.
func imageSrc(sel *goquery.Selection) string {
	if src, ok := sel.Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := sel.Attr("data-src"); ok && src != "" {
		return src
	}
	return ""
}
