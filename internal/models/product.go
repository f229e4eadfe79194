package models

// ProductRecord is the normalized output of one scrape: every field the
// extraction contract produces for a single product page.
type ProductRecord struct {
	Title          string            `json:"title"`
	Price          string            `json:"price"`
	Currency       string            `json:"currency"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications"`
	SizeInfo       []string          `json:"size_info"`
	ColorOptions   []string          `json:"color_options"`
	ReviewsSummary ReviewsSummary    `json:"reviews_summary"`
	SourceURL      string            `json:"source_url"`
	URL            string            `json:"url"`
}

type ReviewsSummary struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// EmptyRecord returns a record with all product fields zeroed and only the
// URL fields set. Returned when a fetch yields no usable content, so batch
// callers can keep going past transient network failures.
func EmptyRecord(url string) *ProductRecord {
	return &ProductRecord{
		Images:         []string{},
		Specifications: map[string]string{},
		SizeInfo:       []string{},
		ColorOptions:   []string{},
		SourceURL:      url,
		URL:            url,
	}
}

// IsEmpty reports whether the record carries no extracted product data.
func (p *ProductRecord) IsEmpty() bool {
	return p.Title == "" && p.Price == "" && len(p.Images) == 0 &&
		p.Category == "" && p.Description == ""
}
