package model

import "time"

// AssessmentPayload is the full comparison matrix for one project, shaped
// for direct consumption by reporting and UI layers.
type AssessmentPayload struct {
	ProjectID       string             `json:"project_id"`
	ProjectName     string             `json:"project_name"`
	Contractors     []ContractorColumn `json:"contractors"`
	Lines           []LineAssessment   `json:"lines"`
	Sections        []SectionSummary   `json:"sections"`
	Exceptions      []ExceptionEntry   `json:"exceptions"`
	Inconsistencies int                `json:"inconsistencies"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// ContractorColumn heads one column of the matrix. Total sums the
// contractor's accepted and manual cell amounts, rounded to 2dp.
type ContractorColumn struct {
	ContractorID string  `json:"contractor_id"`
	Name         string  `json:"name"`
	Total        float64 `json:"total"`
}

// LineAssessment is one ITT line with one cell per contractor.
type LineAssessment struct {
	ITTItemID   string                  `json:"itt_item_id"`
	SectionID   string                  `json:"section_id,omitempty"`
	ItemCode    string                  `json:"item_code,omitempty"`
	Description string                  `json:"description"`
	Unit        string                  `json:"unit,omitempty"`
	Qty         float64                 `json:"qty"`
	Rate        float64                 `json:"rate"`
	Amount      float64                 `json:"amount"`
	Cells       map[string]ResponseCell `json:"cells"` // keyed by contractor id
}

// ResponseCell is a single contractor's answer for one ITT line. Amount
// is nil when the response priced the line with a label or not at all.
type ResponseCell struct {
	MatchID        string      `json:"match_id"`
	ResponseItemID string      `json:"response_item_id"`
	MatchStatus    MatchStatus `json:"match_status"`
	Confidence     float64     `json:"confidence"`
	Amount         *float64    `json:"amount,omitempty"`
	AmountLabel    string      `json:"amount_label,omitempty"`
}

// SectionSummary subtotals one section across contractors. Exception
// amounts are surfaced beside the contractor totals, never folded in.
type SectionSummary struct {
	SectionID                    string             `json:"section_id"`
	Code                         string             `json:"code,omitempty"`
	Name                         string             `json:"name"`
	SortOrder                    int                `json:"sort_order"`
	TotalITTAmount               float64            `json:"total_itt_amount"`
	TotalsByContractor           map[string]float64 `json:"totals_by_contractor"`
	ExceptionCount               int                `json:"exception_count"`
	ExceptionAmountsByContractor map[string]float64 `json:"exception_amounts_by_contractor,omitempty"`
	Synthetic                    bool               `json:"synthetic,omitempty"` // built from item hints, no Section row
}

// ExceptionEntry is an exception with display fields resolved.
type ExceptionEntry struct {
	ExceptionID    string   `json:"exception_id"`
	ResponseItemID string   `json:"response_item_id"`
	ContractorID   string   `json:"contractor_id"`
	ContractorName string   `json:"contractor_name"` // "Unknown" when the contractor record is missing
	Description    string   `json:"description"`
	SectionID      string   `json:"section_id,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	AmountLabel    string   `json:"amount_label,omitempty"`
	Note           string   `json:"note,omitempty"`
}
