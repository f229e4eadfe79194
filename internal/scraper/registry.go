package scraper

import (
	"errors"
	"fmt"
)

// Registry routes product URLs to the scraper for their site.
type Registry struct {
	scrapers []*Scraper
}

func NewRegistry(scrapers ...*Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

// ForURL returns the first registered scraper whose site serves the URL.
func (r *Registry) ForURL(url string) (*Scraper, error) {
	for _, s := range r.scrapers {
		if s.CanHandleURL(url) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: no scraper registered for %s", ErrUnsupportedURL, url)
}

func (r *Registry) Scrapers() []*Scraper {
	return r.scrapers
}

// Cleanup releases every registered scraper's resources.
func (r *Registry) Cleanup() error {
	var errs []error
	for _, s := range r.scrapers {
		if err := s.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
