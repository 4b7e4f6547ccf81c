package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ParsedLineItem is one canonical ITT record emitted by the extraction
// service. Section placement arrives as code/name hints; ingest resolves
// them to Section rows.
type ParsedLineItem struct {
	ItemCode    string   `json:"item_code,omitempty"`
	Description string   `json:"description"`
	Unit        string   `json:"unit,omitempty"`
	Qty         *float64 `json:"qty,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	SectionCode string   `json:"section_code,omitempty"`
	SectionName string   `json:"section_name,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// Validate reports the first violation in the record, or nil.
func (p ParsedLineItem) Validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return eris.Wrap(ErrValidation, "line item description is required")
	}
	if p.Qty != nil && *p.Qty < 0 {
		return eris.Wrapf(ErrValidation, "line item qty %v is negative", *p.Qty)
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return eris.Wrapf(ErrValidation, "line item confidence %v outside [0,1]", *p.Confidence)
	}
	return nil
}

// ParsedResponseItem is one canonical response record emitted by the
// extraction service. Value carries the priced cell exactly as extracted
// (number, currency string, "Included", blank); the normalizer classifies
// it at ingest.
type ParsedResponseItem struct {
	ItemCode    string   `json:"item_code,omitempty"`
	Description string   `json:"description"`
	Unit        string   `json:"unit,omitempty"`
	Qty         *float64 `json:"qty,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
	Value       any      `json:"value"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// Validate reports the first violation in the record, or nil.
func (p ParsedResponseItem) Validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return eris.Wrap(ErrValidation, "response item description is required")
	}
	if p.Qty != nil && *p.Qty < 0 {
		return eris.Wrapf(ErrValidation, "response item qty %v is negative", *p.Qty)
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return eris.Wrapf(ErrValidation, "response item confidence %v outside [0,1]", *p.Confidence)
	}
	return nil
}
