package browser

import "time"

// The driver seam mirrors the slice of the automation API the session
// actually uses, so fetch behavior can be exercised against stub drivers.

type Driver interface {
	Launch(opts *Options) (Browser, error)
	Stop() error
}

type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// ContextOptions configure one fresh browser context, created per fetch.
type ContextOptions struct {
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	ExtraHeaders   map[string]string
	Proxy          string
}

type Context interface {
	NewPage() (Page, error)
	Close() error
}

type Page interface {
	Goto(url string, timeout time.Duration, waitUntil string) (Response, error)
	Content() (string, error)
	Title() (string, error)
	URL() string
	Evaluate(expression string) (any, error)
	MouseMove(x, y float64) error
	MouseClick(x, y float64) error
	SetExtraHTTPHeaders(headers map[string]string) error
	Close() error
}

type Response interface {
	Ok() bool
	Status() int
	Headers() map[string]string
}
