package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Searcher returns ordered result URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// DefaultResultsPerQuery is how many results GoogleSearcher asks for.
const DefaultResultsPerQuery = 8

// GoogleSearcher queries a Programmable Search Engine.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
	num int64
}

// NewGoogleSearcher creates a GoogleSearcher for the given API key and engine id.
func NewGoogleSearcher(ctx context.Context, apiKey string, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, &Error{Message: "search API key and engine id are required"}
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, &Error{Message: "failed to create customsearch service", Cause: err}
	}
	return &GoogleSearcher{svc: svc, cx: cx, num: DefaultResultsPerQuery}, nil
}

// Search returns the result links for query in rank order.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]string, error) {
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(g.num).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("search %q failed", query), Cause: err}
	}

	links := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}
