// Package types provides the data model shared by the venue-scout extraction and crawl packages.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Entity is a named real-world venue or event whose official page and schedule are being resolved.
type Entity struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	KnownLinks  []string `json:"known_links,omitempty" validate:"dive,url"`
	Location    string   `json:"location,omitempty"`
}

// Validate validates the Entity using the validator.
func (e *Entity) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}

// HasTag reports whether the entity carries any of the given tags (case-insensitive).
func (e *Entity) HasTag(tags ...string) bool {
	for _, have := range e.Tags {
		for _, want := range tags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
