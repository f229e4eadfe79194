package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomdev/boom-scraper/internal/browser"
)

const temuProductHTML = `
<html>
	<head>
		<script id="__NEXT_DATA__" type="application/json">
			{
				"props": {
					"pageProps": {
						"detail": {
							"images": [
								{"url": "https://img.temu.com/image1.jpg"},
								{"url": "https://img.temu.com/image2.jpg"}
							]
						}
					}
				}
			}
		</script>
	</head>
	<body>
		<h1 class="DetailName_title">Test Product</h1>
		<div class="DetailPrice_price">$19.99</div>
		<nav class="DetailBreadcrumb">
			<span class="DetailBreadcrumb_item">Home</span>
			<span class="DetailBreadcrumb_item">Fashion</span>
			<span class="DetailBreadcrumb_item">Accessories</span>
		</nav>
		<div class="DetailDescription_content">A great test product description</div>
		<div class="DetailGallery_image"><img src="https://img.temu.com/gallery1.jpg"></div>
		<div class="DetailGallery_image"><img src="https://img.temu.com/gallery2.jpg"></div>
		<div class="DetailSpecs_item">
			<span class="DetailSpecs_label">Material</span>
			<span class="DetailSpecs_value">Cotton</span>
		</div>
		<div class="DetailSpecs_item">
			<span class="DetailSpecs_label">Style</span>
			<span class="DetailSpecs_value">Casual</span>
		</div>
		<div class="DetailSize_item"><span class="DetailSize_value">S</span></div>
		<div class="DetailSize_item"><span class="DetailSize_value">M</span></div>
		<div class="DetailColor_item"><span class="DetailColor_value">Red</span></div>
		<div class="DetailColor_item"><span class="DetailColor_value">Blue</span></div>
		<div class="DetailReviews_summary">
			<span class="DetailReviews_rating">4.5</span>
			<span class="DetailReviews_count">123 reviews</span>
		</div>
	</body>
</html>`

func temuContent(html string) *browser.FetchResult {
	return &browser.FetchResult{
		URL:    "https://www.temu.com/product",
		HTML:   html,
		Status: 200,
	}
}

func TestTemuDomain(t *testing.T) {
	assert.Equal(t, "temu.com", NewTemu().Domain())
}

func TestTemuExtractTitle(t *testing.T) {
	title, err := NewTemu().ExtractTitle(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, "Test Product", title)
}

func TestTemuExtractTitleMissing(t *testing.T) {
	_, err := NewTemu().ExtractTitle(temuContent("<html></html>"))
	assertExtractionError(t, err, "title", KindNotFound)
}

func TestTemuExtractPrice(t *testing.T) {
	price, err := NewTemu().ExtractPrice(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, "19.99", price)
}

func TestTemuExtractPriceInvalidFormat(t *testing.T) {
	html := `<div class="DetailPrice_price">invalid</div>`
	_, err := NewTemu().ExtractPrice(temuContent(html))
	assertExtractionError(t, err, "price", KindInvalidFormat)
}

func TestTemuExtractPriceMissing(t *testing.T) {
	_, err := NewTemu().ExtractPrice(temuContent("<html></html>"))
	assertExtractionError(t, err, "price", KindNotFound)
}

func TestTemuExtractImagesPrefersNextData(t *testing.T) {
	images, err := NewTemu().ExtractImages(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://img.temu.com/image1.jpg",
		"https://img.temu.com/image2.jpg",
	}, images)
}

func TestTemuExtractImagesGalleryFallbackInDocumentOrder(t *testing.T) {
	html := `
	<div class="DetailGallery_image"><img src="https://img.temu.com/gallery1.jpg"></div>
	<div class="DetailGallery_image"><img src="https://img.temu.com/gallery2.jpg"></div>`
	images, err := NewTemu().ExtractImages(temuContent(html))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://img.temu.com/gallery1.jpg",
		"https://img.temu.com/gallery2.jpg",
	}, images)
}

func TestTemuExtractImagesMissing(t *testing.T) {
	_, err := NewTemu().ExtractImages(temuContent("<html></html>"))
	assertExtractionError(t, err, "images", KindNotFound)
}

func TestTemuExtractCategoryUsesLastBreadcrumb(t *testing.T) {
	category, err := NewTemu().ExtractCategory(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, "Accessories", category)
}

func TestTemuExtractDescription(t *testing.T) {
	desc, err := NewTemu().ExtractDescription(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, "A great test product description", desc)
}

func TestTemuExtractDescriptionMissing(t *testing.T) {
	_, err := NewTemu().ExtractDescription(temuContent("<html></html>"))
	assertExtractionError(t, err, "description", KindNotFound)
}

func TestTemuExtractSpecifications(t *testing.T) {
	specs, err := NewTemu().ExtractSpecifications(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Material": "Cotton",
		"Style":    "Casual",
	}, specs)
}

func TestTemuExtractSpecificationsMissing(t *testing.T) {
	_, err := NewTemu().ExtractSpecifications(temuContent("<html></html>"))
	assertExtractionError(t, err, "specifications", KindNotFound)
}

func TestTemuExtractSizeInfo(t *testing.T) {
	sizes, err := NewTemu().ExtractSizeInfo(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M"}, sizes)
}

func TestTemuExtractColorOptions(t *testing.T) {
	colors, err := NewTemu().ExtractColorOptions(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Blue"}, colors)
}

func TestTemuExtractReviewsSummary(t *testing.T) {
	reviews, err := NewTemu().ExtractReviewsSummary(temuContent(temuProductHTML))
	require.NoError(t, err)
	assert.Equal(t, 4.5, reviews.Rating)
	assert.Equal(t, 123, reviews.ReviewCount)
}

func TestTemuExtractReviewsSummaryMissingCount(t *testing.T) {
	html := `
	<div class="DetailReviews_summary">
		<span class="DetailReviews_rating">4.5</span>
		<span class="DetailReviews_count">no reviews yet</span>
	</div>`
	_, err := NewTemu().ExtractReviewsSummary(temuContent(html))
	assertExtractionError(t, err, "reviews_summary", KindInvalidFormat)
}

func TestTemuExtractReviewsSummaryMissing(t *testing.T) {
	_, err := NewTemu().ExtractReviewsSummary(temuContent("<html></html>"))
	assertExtractionError(t, err, "reviews_summary", KindNotFound)
}
