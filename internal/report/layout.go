// Package report renders an assessment payload as a comparison workbook.
package report

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Layout tunes the rendered workbook. Every field has a working default;
// a report.yaml can override any of them.
type Layout struct {
	ComparisonSheet string `yaml:"comparison_sheet"`
	SectionsSheet   string `yaml:"sections_sheet"`
	ExceptionsSheet string `yaml:"exceptions_sheet"`

	// HighlightSpread flags a line when the gap between the cheapest and
	// dearest priced cells exceeds this fraction of the ITT amount.
	HighlightSpread float64 `yaml:"highlight_spread"`

	// AmountFormat is the Excel number format applied to amount cells.
	AmountFormat string `yaml:"amount_format"`
}

// DefaultLayout returns the layout used when no report.yaml is present.
func DefaultLayout() Layout {
	return Layout{
		ComparisonSheet: "Comparison",
		SectionsSheet:   "Sections",
		ExceptionsSheet: "Exceptions",
		HighlightSpread: 0.25,
		AmountFormat:    "#,##0.00",
	}
}

// LoadLayout reads layout overrides from a YAML file. A missing file is
// not an error: defaults apply. Fields left blank in the file keep their
// defaults.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return layout, nil
		}
		return layout, eris.Wrapf(err, "report: read layout %s", path)
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return layout, eris.Wrap(err, "report: parse layout")
	}

	def := DefaultLayout()
	if layout.ComparisonSheet == "" {
		layout.ComparisonSheet = def.ComparisonSheet
	}
	if layout.SectionsSheet == "" {
		layout.SectionsSheet = def.SectionsSheet
	}
	if layout.ExceptionsSheet == "" {
		layout.ExceptionsSheet = def.ExceptionsSheet
	}
	if layout.HighlightSpread == 0 {
		layout.HighlightSpread = def.HighlightSpread
	}
	if layout.AmountFormat == "" {
		layout.AmountFormat = def.AmountFormat
	}
	return layout, nil
}
