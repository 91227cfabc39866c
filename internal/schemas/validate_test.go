package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/venue-scout/internal/types"
)

func TestValidateJSON_ValidJSON(t *testing.T) {
	err := ValidateJSON(filepath.Join("testdata", "entity_schema.json"), filepath.Join("testdata", "valid_entity.json"))
	assert.NoError(t, err)
}

func TestValidateJSON_Invalid(t *testing.T) {
	for _, file := range []string{"missing_field.json", "type_mismatch.json"} {
		t.Run(file, func(t *testing.T) {
			err := ValidateJSON(filepath.Join("testdata", "entity_schema.json"), filepath.Join("testdata", file))
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	err := ValidateJSON("testdata/nonexistent_schema.json", filepath.Join("testdata", "valid_entity.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(filepath.Join("testdata", "entity_schema.json"), "testdata/nonexistent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	malformed := filepath.Join(t.TempDir(), "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte("{ invalid json }"), 0644))

	err := ValidateJSON(filepath.Join("testdata", "entity_schema.json"), malformed)
	require.Error(t, err)
}

func TestValidateJSONString(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["person"],
		"properties": {
			"person": {
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "string"}}
			}
		}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"person": {"name": "Ada"}}`))

	err := ValidateJSONString(schemaContent, `{"person": {}}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, validationErr.Errors[0].Field, "person")
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "run_id", Message: "is required"},
			{Field: "scored_urls", Message: "must be an array"},
		},
	}
	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. run_id: is required")
	assert.Contains(t, msg, "2. scored_urls")
}

func schedulePage() *types.ScrapedPage {
	return &types.ScrapedPage{
		URL:     "https://oldmill.org.uk/visit",
		Title:   "Visit",
		RawText: "Open Tuesday to Sunday 10am-5pm",
		RawInstances: []types.RawTimeInstance{
			{Date: "2026-10-13", StartTime: "10:00", EndTime: "17:00"},
		},
	}
}

func TestValidateResult_Schedule(t *testing.T) {
	official := "https://oldmill.org.uk/"
	page := schedulePage()
	sched := types.NewWeeklySchedule()
	sched.Days["Monday"] = types.DayHours{Closed: true}
	sched.Days["Tuesday"] = types.DayHours{Open: "10:00", Close: "17:00"}
	sched.Exceptions = []types.Exception{{Date: "2026-12-25", Status: types.StatusClosed}}

	result := &types.Result{
		RunID:               "run-1",
		ResolvedOfficialURL: &official,
		Pages:               []*types.ScrapedPage{page},
		PrimaryDatesPage:    page,
		ScoredURLs:          []types.ScoredCandidate{{URL: official, Score: 120}, {URL: official + "shop", Score: -40}},
	}
	result.SetDates(&types.Dates{Schedule: sched})

	assert.NoError(t, ValidateResult(result))
}

func TestValidateResult_Events(t *testing.T) {
	result := &types.Result{
		RunID:      "run-2",
		Pages:      []*types.ScrapedPage{},
		ScoredURLs: []types.ScoredCandidate{},
	}
	result.SetDates(&types.Dates{Events: &types.EventInstanceSet{Instances: []types.EventInstance{
		{Date: "2026-11-01", StartTime: "19:30", Note: "Quiz night"},
	}}})

	assert.NoError(t, ValidateResult(result))
}

func TestValidateResult_NoOfficialURL(t *testing.T) {
	result := &types.Result{RunID: "run-3", Pages: []*types.ScrapedPage{}, ScoredURLs: []types.ScoredCandidate{}}
	assert.NoError(t, ValidateResult(result))
}

func TestValidateResultJSON_Rejects(t *testing.T) {
	valid := map[string]any{
		"run_id":                "run-4",
		"resolved_official_url": nil,
		"pages":                 []any{},
		"primary_dates_page":    nil,
		"dates":                 nil,
		"classification":        nil,
		"scored_urls":           []any{},
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing run id", func(m map[string]any) { delete(m, "run_id") }},
		{"unknown classification", func(m map[string]any) { m["classification"] = "venue" }},
		{"bad time", func(m map[string]any) {
			m["dates"] = map[string]any{"type": "weekly_schedule", "days": map[string]any{
				"Monday": map[string]any{"open": "25:00", "close": "17:00"},
			}}
		}},
		{"lowercase weekday", func(m map[string]any) {
			m["dates"] = map[string]any{"type": "weekly_schedule", "days": map[string]any{"monday": "closed"}}
		}},
		{"empty event set", func(m map[string]any) {
			m["dates"] = map[string]any{"type": "event_instances", "instances": []any{}}
		}},
		{"fractional score", func(m map[string]any) {
			m["scored_urls"] = []any{map[string]any{"url": "https://a.org/", "score": 1.5}}
		}},
	}

	data, err := json.Marshal(valid)
	require.NoError(t, err)
	require.NoError(t, ValidateResultJSON(data))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := make(map[string]any, len(valid))
			for k, v := range valid {
				doc[k] = v
			}
			tt.mutate(doc)
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, ValidateResultJSON(data), &validationErr)
		})
	}
}

func TestResultSchema_IsEmbedded(t *testing.T) {
	assert.Contains(t, ResultSchema(), `"weekly_schedule"`)
}
