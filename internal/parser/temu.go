package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/models"
)

// TemuExtractor parses Temu US product pages.
type TemuExtractor struct{}

func NewTemu() *TemuExtractor {
	return &TemuExtractor{}
}

func (e *TemuExtractor) Domain() string {
	return "temu.com"
}

func (e *TemuExtractor) ExtractTitle(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	title := doc.Find("h1.DetailName_title").First()
	if title.Length() == 0 {
		return "", notFound("title")
	}
	return strings.TrimSpace(title.Text()), nil
}

func (e *TemuExtractor) ExtractPrice(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	price := doc.Find(".DetailPrice_price").First()
	if price.Length() == 0 {
		return "", notFound("price")
	}
	return cleanPrice(price.Text())
}

// Temu's US storefront prices exclusively in USD.
func (e *TemuExtractor) ExtractCurrency(content *browser.FetchResult) (string, error) {
	return "USD", nil
}

// ExtractImages prefers the __NEXT_DATA__ island the storefront embeds for
// hydration and falls back to the detail gallery markup.
func (e *TemuExtractor) ExtractImages(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}

	if images := e.imagesFromNextData(doc); len(images) > 0 {
		return images, nil
	}

	var images []string
	doc.Find(".DetailGallery_image img").Each(func(_ int, sel *goquery.Selection) {
		if src := imageSrc(sel); src != "" {
			images = append(images, src)
		}
	})
	if len(images) == 0 {
		return nil, notFound("images")
	}
	return images, nil
}

func (e *TemuExtractor) imagesFromNextData(doc *goquery.Document) []string {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}

	var payload struct {
		Props struct {
			PageProps struct {
				Detail struct {
					Images []struct {
						URL string `json:"url"`
					} `json:"images"`
				} `json:"detail"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
		return nil
	}

	var images []string
	for _, img := range payload.Props.PageProps.Detail.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}
	return images
}

func (e *TemuExtractor) ExtractCategory(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	crumbs := doc.Find(".DetailBreadcrumb_item")
	if crumbs.Length() == 0 {
		return "", notFound("category")
	}
	return strings.TrimSpace(crumbs.Last().Text()), nil
}

func (e *TemuExtractor) ExtractDescription(content *browser.FetchResult) (string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return "", err
	}
	desc := doc.Find(".DetailDescription_content").First()
	if desc.Length() == 0 {
		return "", notFound("description")
	}
	return strings.TrimSpace(desc.Text()), nil
}

func (e *TemuExtractor) ExtractSpecifications(content *browser.FetchResult) (map[string]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".DetailSpecs_item")
	if items.Length() == 0 {
		return nil, notFound("specifications")
	}
	specs := make(map[string]string, items.Length())
	items.Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Find(".DetailSpecs_label").Text())
		value := strings.TrimSpace(sel.Find(".DetailSpecs_value").Text())
		if label != "" && value != "" {
			specs[label] = value
		}
	})
	return specs, nil
}

func (e *TemuExtractor) ExtractSizeInfo(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".DetailSize_item .DetailSize_value")
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

func (e *TemuExtractor) ExtractColorOptions(content *browser.FetchResult) ([]string, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return nil, err
	}
	items := doc.Find(".DetailColor_item .DetailColor_value")
	if items.Length() == 0 {
		return nil, notFound("color_options")
	}
	var colors []string
	items.Each(func(_ int, sel *goquery.Selection) {
		if color := strings.TrimSpace(sel.Text()); color != "" {
			colors = append(colors, color)
		}
	})
	return colors, nil
}

func (e *TemuExtractor) ExtractReviewsSummary(content *browser.FetchResult) (models.ReviewsSummary, error) {
	doc, err := parseDoc(content)
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	summary := doc.Find(".DetailReviews_summary").First()
	if summary.Length() == 0 {
		return models.ReviewsSummary{}, notFound("reviews_summary")
	}

	rating, err := parseRating(summary.Find(".DetailReviews_rating").Text())
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	count, err := parseReviewCount(summary.Find(".DetailReviews_count").Text())
	if err != nil {
		return models.ReviewsSummary{}, err
	}
	return models.ReviewsSummary{Rating: rating, ReviewCount: count}, nil
}
