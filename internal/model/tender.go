package model

// Section groups ITT items for subtotals and display ordering. At most
// one Section exists per normalized code|name key within a project.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// ITTItem is one line of the bill of quantities issued to contractors.
// Amount is the extracted total when present, otherwise derived qty*rate
// at ingest. Rate may be negative for credit lines; qty never is.
type ITTItem struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	SectionID       string  `json:"section_id,omitempty"`
	ItemCode        string  `json:"item_code,omitempty"`
	Description     string  `json:"description"`
	Unit            string  `json:"unit,omitempty"`
	Qty             float64 `json:"qty"`
	Rate            float64 `json:"rate"`
	Amount          float64 `json:"amount"`
	SectionCodeHint string  `json:"section_code_hint,omitempty"` // parsing hint, aggregator fallback
	SectionNameHint string  `json:"section_name_hint,omitempty"`
}

// ResponseItem is one priced line from a contractor response. At most one
// of Amount and AmountLabel is set: the normalizer classifies each raw
// cell into a numeric amount or a verbatim label such as "Included".
type ResponseItem struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	ContractorID string   `json:"contractor_id"`
	ItemCode     string   `json:"item_code,omitempty"`
	Description  string   `json:"description"`
	Unit         string   `json:"unit,omitempty"`
	Qty          *float64 `json:"qty,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	AmountLabel  string   `json:"amount_label,omitempty"`
}

// Contractor is one respondent to the ITT, unique per project under
// case/space-insensitive name comparison.
type Contractor struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Contact   string `json:"contact,omitempty"`
}

// Exception is a response line that answers nothing in the ITT: scope a
// contractor priced that the bill never asked for. Attaching it to a
// section surfaces its value beside that section's totals.
type Exception struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"project_id"`
	ResponseItemID string   `json:"response_item_id"`
	ContractorID   string   `json:"contractor_id"`
	Description    string   `json:"description"`
	SectionID      string   `json:"section_id,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	AmountLabel    string   `json:"amount_label,omitempty"`
	Note           string   `json:"note,omitempty"`
}
