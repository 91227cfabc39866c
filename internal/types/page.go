package types

// StructuredFields holds best-effort fields pulled from a page.
type StructuredFields struct {
	Description string   `json:"description,omitempty"`
	Price       []string `json:"price,omitempty"`
	Age         []string `json:"age,omitempty"`
	HoursText   []string `json:"hours_text,omitempty"`

	// Parsed JSON-LD block, when the page carries one
	JSONLDSchedule *WeeklySchedule   `json:"jsonld_schedule,omitempty"`
	JSONLDEvents   []RawTimeInstance `json:"jsonld_events,omitempty"`
}

// ScrapedPage is the immutable record of one successful fetch.
type ScrapedPage struct {
	URL              string            `json:"url"`
	Title            string            `json:"title"`
	RawText          string            `json:"raw_text"`
	HTML             string            `json:"-"`
	JSONLDScripts    []string          `json:"-"`
	StructuredFields StructuredFields  `json:"structured_fields"`
	RawInstances     []RawTimeInstance `json:"raw_date_time_instances,omitempty"`
}

// ScoredCandidate is a URL with a signed relevance score.
type ScoredCandidate struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// Result is the output contract handed to the rest of the pipeline.
type Result struct {
	RunID               string            `json:"run_id"`
	ResolvedOfficialURL *string           `json:"resolved_official_url"`
	Pages               []*ScrapedPage    `json:"pages"`
	PrimaryDatesPage    *ScrapedPage      `json:"primary_dates_page"`
	Dates               *Dates            `json:"dates"`
	Classification      *Classification   `json:"classification"`
	ScoredURLs          []ScoredCandidate `json:"scored_urls"`
}

// SetDates stores dates and the matching classification.
func (r *Result) SetDates(d *Dates) {
	if d.IsEmpty() {
		r.Dates = nil
		r.Classification = nil
		return
	}
	r.Dates = d
	c := d.Classification()
	r.Classification = &c
}
