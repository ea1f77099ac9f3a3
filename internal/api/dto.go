package api

import (
	"github.com/starford/labelvault/internal/index"
	"github.com/starford/labelvault/internal/labelservice"
)

// LabelView is a single label record (aliased from the domain layer).
type LabelView = labelservice.LabelView

// SetLabelRequest is the request body for upserting a label.
type SetLabelRequest = labelservice.LabelInput

// Stats is the label set summary (aliased from the domain layer).
type Stats = labelservice.Stats

// LabelListResponse wraps paginated label listings.
type LabelListResponse struct {
	Labels []LabelView `json:"labels" validate:"required"`
	Total  int         `json:"total" example:"42" validate:"required"`
}

// ImportResponse reports how many records an import processed, overwrites
// and repeated refs included.
type ImportResponse struct {
	Imported int `json:"imported" example:"12" validate:"required"`
}

// SaveResponse carries the checksum of the written label file.
type SaveResponse struct {
	Checksum string `json:"checksum" example:"9f86d081..." validate:"required"`
}

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
