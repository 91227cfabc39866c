// Package crawling walks a venue's website looking for the pages that carry its opening hours,
// ages, prices and description, under a per-run page budget.
package crawling

import (
	"errors"
	"fmt"
)

// ErrNoPagesFetched is returned when a run ends without a single successful fetch. The
// caller treats it as "could not resolve this entity".
var ErrNoPagesFetched = errors.New("crawl error: no pages fetched")

// CrawlError represents a general crawling failure
type CrawlError struct {
	Message string
	Cause   error
}

func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crawl error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("crawl error: %s", e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// SitemapError represents a failure reading or parsing a sitemap
type SitemapError struct {
	URL     string
	Message string
	Cause   error
}

func (e *SitemapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sitemap error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("sitemap error for %s: %s", e.URL, e.Message)
}

func (e *SitemapError) Unwrap() error {
	return e.Cause
}

// HTTPStatusError is a fetch that completed with an error status. It is not retried.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("crawl error: %s returned HTTP %d", e.URL, e.Status)
}
