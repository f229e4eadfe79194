package browser

// FetchResult is the normalized outcome of one navigation attempt. Exactly
// one of HTML or Error is set once a fetch completes: a successful fetch
// never carries an error and a failed fetch never carries usable HTML.
type FetchResult struct {
	URL      string            `json:"url"`
	FinalURL string            `json:"final_url,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Status   int               `json:"status,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Title    string            `json:"title,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// OK reports whether the fetch produced usable content.
func (r *FetchResult) OK() bool {
	return r != nil && r.Error == "" && r.HTML != ""
}
