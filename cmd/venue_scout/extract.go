package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/venue-scout/internal/crawling"
	"github.com/jonathan/venue-scout/internal/extraction"
	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/observability"
	"github.com/jonathan/venue-scout/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract opening hours or event dates from a saved HTML page",
	RunE:  runExtract,
}

var (
	extractFilePath string
	extractURL      string
	extractRefDate  string
)

func init() {
	extractCmd.Flags().StringVarP(&extractFilePath, "file", "f", "", "Path to an HTML file (required)")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "URL the page was saved from")
	extractCmd.Flags().StringVar(&extractRefDate, "ref-date", "", "Reference date for year-less dates (YYYY-MM-DD, default: today)")

	if err := extractCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

// extractOutput is what the extract command prints.
type extractOutput struct {
	URL            string                  `json:"url"`
	Title          string                  `json:"title"`
	Dates          *types.Dates            `json:"dates"`
	Classification *types.Classification   `json:"classification"`
	Instances      []types.RawTimeInstance `json:"raw_date_time_instances"`
}

func parseRefDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --ref-date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// pageFromFile builds a page as the crawler would from a rendered document.
func pageFromFile(path, pageURL string, ld crawling.JSONLDParser) (*types.ScrapedPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML file %s: %w", path, err)
	}
	if pageURL == "" {
		pageURL = "https://local.invalid/" + filepath.Base(path)
	}
	html := string(data)
	scripts, err := fetch.ExtractJSONLD(html)
	if err != nil {
		return nil, err
	}
	return crawling.BuildScrapedPage(pageURL, &fetch.Page{
		FinalURL:      pageURL,
		StatusCode:    200,
		RenderedHTML:  html,
		VisibleText:   fetch.VisibleText(html),
		JSONLDScripts: scripts,
	}, ld), nil
}

func extractFile(ctx context.Context, engine *extraction.Engine, path, pageURL string) (*extractOutput, error) {
	page, err := pageFromFile(path, pageURL, engine)
	if err != nil {
		return nil, err
	}
	out := &extractOutput{
		URL:       page.URL,
		Title:     page.Title,
		Instances: engine.RawInstances(ctx, page),
	}
	var result types.Result
	result.SetDates(engine.Extract(ctx, page))
	out.Dates, out.Classification = result.Dates, result.Classification
	return out, nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	_, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ref, err := parseRefDate(extractRefDate)
	if err != nil {
		return err
	}
	engine := newExtractor(logger, metrics.Default(), extraction.WithReferenceTime(func() time.Time { return ref }))

	out, err := extractFile(cmd.Context(), engine, extractFilePath, extractURL)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stderr).PrintDates(out.Dates)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}
