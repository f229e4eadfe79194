package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/models"
)

// SheinExtractor parses Shein US product pages.
type SheinExtractor struct{}

func NewShein() *SheinExtractor {
	return &SheinExtractor{}
}

func (e *SheinExtractor) Domain() string {
	return "shein.com"
}

func (e *SheinExtractor) ExtractTitle(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	title := doc.Find("h1.product-intro__head-name").First()
	if title.Length() == 0 {
		return "", notFound("title")
	}
	return strings.TrimSpace(title.Text()), nil
}

func (e *SheinExtractor) ExtractPrice(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	price := doc.Find(".product-intro__head-price .from").First()
	if price.Length() == 0 {
		return "", notFound("price")
	}
	return cleanPrice(price.Text())
}

// Shein's US storefront prices exclusively in USD; the page never states a
// currency to derive it from.
func (e *SheinExtractor) ExtractCurrency(content *browser.FetchResult) (string, error) {
	return "USD", nil
}

// ExtractImages prefers the JSON-LD payload embedded in the page head and
// falls back to the thumbnail gallery, upgrading thumbnail URLs to their
// full-size variants.
func (e *SheinExtractor) ExtractImages(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}

	if images := e.imagesFromJSONLD(doc); len(images) > 0 {
		return images, nil
	}

	var images []string
	doc.Find(".product-intro__thumbs-item img").Each(func(_ int, sel *goquery.Selection) {
		if src := imageSrc(sel); src != "" {
			images = append(images, strings.ReplaceAll(src, "_thumbnail_", "_"))
		}
	})
	if len(images) == 0 {
		return nil, notFound("images")
	}
	return images, nil
}

func (e *SheinExtractor) imagesFromJSONLD(doc *goquery.Document) []string {
	var images []string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var payload struct {
			Image any `json:"image"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return true
		}
		switch img := payload.Image.(type) {
		case string:
			images = append(images, img)
		case []any:
			for _, item := range img {
				if u, ok := item.(string); ok {
					images = append(images, u)
				}
			}
		}
		return len(images) == 0
	})
	return images
}

func (e *SheinExtractor) ExtractCategory(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	crumbs := doc.Find(".j-bread-crumb a")
	if crumbs.Length() == 0 {
		return "", notFound("category")
	}
	// The last breadcrumb is the most specific category node.
	return strings.TrimSpace(crumbs.Last().Text()), nil
}

func (e *SheinExtractor) ExtractDescription(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	desc := doc.Find(".product-intro__description").First()
	if desc.Length() == 0 {
		return "", notFound("description")
	}
	return strings.TrimSpace(desc.Text()), nil
}

func (e *SheinExtractor) ExtractSpecifications(content *browser.FetchResult) (map[string]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".product-intro__attr-item")
	if items.Length() == 0 {
		return nil, notFound("specifications")
	}
	specs := make(map[string]string, items.Length())
	items.Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Find(".product-intro__attr-name").Text())
		value := strings.TrimSpace(sel.Find(".product-intro__attr-value").Text())
		if label != "" && value != "" {
			specs[strings.TrimSuffix(label, ":")] = value
		}
	})
	return specs, nil
}

func (e *SheinExtractor) ExtractSizeInfo(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".product-intro__size-radio-inner")
	if items.Length() == 0 {
		return nil, notFound("size_info")
	}
	var sizes []string
	items.Each(func(_ int, sel *goquery.Selection) {
		if size := strings.TrimSpace(sel.Text()); size != "" {
			sizes = append(sizes, size)
		}
	})
	return sizes, nil
}

func (e *SheinExtractor) ExtractColorOptions(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".product-intro__color-radio")
	if items.Length() == 0 {
		return nil, notFound("color_options")
	}
	var colors []string
	items.Each(func(_ int, sel *goquery.Selection) {
		color, ok := sel.Attr("aria-label")
		if !ok || color == "" {
			color = strings.TrimSpace(sel.Text())
		}
		if color != "" {
			colors = append(colors, color)
		}
	})
	return colors, nil
}

func (e *SheinExtractor) ExtractReviewsSummary(content *browser.FetchResult) (models.ReviewsSummary, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	summary := doc.Find(".common-reviews__summary").First()
	if summary.Length() == 0 {
		return models.ReviewsSummary{}, notFound("reviews_summary")
	}

	rating, err := parseRating(summary.Find(".common-reviews__rating").Text())
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	count, err := parseReviewCount(summary.Find(".common-reviews__count").Text())
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	return models.ReviewsSummary{Rating: rating, ReviewCount: count}, nil
}
