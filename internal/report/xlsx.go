package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
)

// Write renders the payload as a three-sheet workbook at path: the
// line-item comparison matrix, section subtotals, and the exception list.
// Label cells ("Included", "Rate Only") render as text, never as zero.
func Write(payload *model.AssessmentPayload, layout Layout, path string) error {
	f := xlsx.NewFile()

	if err := writeComparison(f, payload, layout); err != nil {
		return err
	}
	if err := writeSections(f, payload, layout); err != nil {
		return err
	}
	if err := writeExceptions(f, payload, layout); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	zap.L().Info("report: workbook written",
		zap.String("project_id", payload.ProjectID),
		zap.String("path", path),
		zap.Int("lines", len(payload.Lines)),
		zap.Int("contractors", len(payload.Contractors)))
	return nil
}

func writeComparison(f *xlsx.File, payload *model.AssessmentPayload, layout Layout) error {
	sheet, err := f.AddSheet(layout.ComparisonSheet)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", layout.ComparisonSheet)
	}
	sheet.SetColWidth(1, 1, 46)

	header := sheet.AddRow()
	for _, h := range []string{"Code", "Description", "Unit", "Qty", "Rate", "ITT Amount"} {
		headerCell(header, h)
	}
	for _, c := range payload.Contractors {
		headerCell(header, c.Name)
	}

	highlight := highlightStyle()
	var ittTotal float64
	for _, line := range payload.Lines {
		row := sheet.AddRow()
		row.AddCell().Value = line.ItemCode
		desc := row.AddCell()
		desc.Value = line.Description
		row.AddCell().Value = line.Unit
		row.AddCell().SetFloatWithFormat(line.Qty, layout.AmountFormat)
		row.AddCell().SetFloatWithFormat(line.Rate, layout.AmountFormat)
		row.AddCell().SetFloatWithFormat(line.Amount, layout.AmountFormat)
		ittTotal += line.Amount

		for _, c := range payload.Contractors {
			cell := row.AddCell()
			rc, ok := line.Cells[c.ContractorID]
			if !ok {
				continue
			}
			switch {
			case rc.Amount != nil:
				cell.SetFloatWithFormat(*rc.Amount, layout.AmountFormat)
			case rc.AmountLabel != "":
				cell.Value = rc.AmountLabel
			}
		}

		if spread, ok := lineSpread(line); ok && spread > layout.HighlightSpread {
			desc.SetStyle(highlight)
		}
	}

	totals := sheet.AddRow()
	totals.AddCell()
	headerCell(totals, "Totals")
	totals.AddCell()
	totals.AddCell()
	totals.AddCell()
	totalCell(totals, ittTotal, layout)
	for _, c := range payload.Contractors {
		totalCell(totals, c.Total, layout)
	}
	return nil
}

func writeSections(f *xlsx.File, payload *model.AssessmentPayload, layout Layout) error {
	sheet, err := f.AddSheet(layout.SectionsSheet)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", layout.SectionsSheet)
	}
	sheet.SetColWidth(1, 1, 36)

	header := sheet.AddRow()
	for _, h := range []string{"Code", "Section", "ITT Total"} {
		headerCell(header, h)
	}
	for _, c := range payload.Contractors {
		headerCell(header, c.Name)
	}
	headerCell(header, "Exceptions")
	headerCell(header, "Exception Value")

	for _, s := range payload.Sections {
		row := sheet.AddRow()
		row.AddCell().Value = s.Code
		row.AddCell().Value = s.Name
		row.AddCell().SetFloatWithFormat(s.TotalITTAmount, layout.AmountFormat)
		for _, c := range payload.Contractors {
			cell := row.AddCell()
			if total, ok := s.TotalsByContractor[c.ContractorID]; ok {
				cell.SetFloatWithFormat(total, layout.AmountFormat)
			}
		}
		row.AddCell().SetInt(s.ExceptionCount)
		var excValue float64
		for _, v := range s.ExceptionAmountsByContractor {
			excValue += v
		}
		if excValue != 0 {
			row.AddCell().SetFloatWithFormat(excValue, layout.AmountFormat)
		}
	}
	return nil
}

func writeExceptions(f *xlsx.File, payload *model.AssessmentPayload, layout Layout) error {
	sheet, err := f.AddSheet(layout.ExceptionsSheet)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", layout.ExceptionsSheet)
	}
	sheet.SetColWidth(1, 1, 46)

	sectionNames := make(map[string]string, len(payload.Sections))
	for _, s := range payload.Sections {
		sectionNames[s.SectionID] = s.Name
	}

	header := sheet.AddRow()
	for _, h := range []string{"Contractor", "Description", "Amount", "Section", "Note"} {
		headerCell(header, h)
	}

	for _, e := range payload.Exceptions {
		row := sheet.AddRow()
		row.AddCell().Value = e.ContractorName
		row.AddCell().Value = e.Description
		cell := row.AddCell()
		switch {
		case e.Amount != nil:
			cell.SetFloatWithFormat(*e.Amount, layout.AmountFormat)
		case e.AmountLabel != "":
			cell.Value = e.AmountLabel
		}
		row.AddCell().Value = sectionNames[e.SectionID]
		row.AddCell().Value = e.Note
	}
	return nil
}

// lineSpread is the gap between the cheapest and dearest priced cells as
// a fraction of the line's ITT amount. Lines with fewer than two priced
// cells or no ITT amount report no spread.
func lineSpread(line model.LineAssessment) (float64, bool) {
	var lo, hi float64
	priced := 0
	for _, c := range line.Cells {
		if c.Amount == nil {
			continue
		}
		if priced == 0 || *c.Amount < lo {
			lo = *c.Amount
		}
		if priced == 0 || *c.Amount > hi {
			hi = *c.Amount
		}
		priced++
	}
	if priced < 2 || line.Amount <= 0 {
		return 0, false
	}
	return (hi - lo) / line.Amount, true
}

func headerCell(row *xlsx.Row, value string) {
	cell := row.AddCell()
	cell.Value = value
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	cell.SetStyle(style)
}

func totalCell(row *xlsx.Row, value float64, layout Layout) {
	cell := row.AddCell()
	cell.SetFloatWithFormat(value, layout.AmountFormat)
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	cell.SetStyle(style)
}

func highlightStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Fill = *xlsx.NewFill("solid", "FFFFEB9C", "FF000000")
	style.ApplyFill = true
	return style
}
