// Package insight writes a short natural-language assessment of a tender
// comparison, for inclusion alongside the workbook.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/pkg/anthropic"
)

const systemPrompt = `You are a quantity surveyor's assistant reviewing a tender comparison. Write a concise assessment (4-8 sentences) for the buyer: the overall spread between bids, where they diverge most, notable exceptions and label-priced lines such as "Included" or "Rate Only", and anything that needs a clarification question before award. Plain prose, no markdown.`

const defaultMaxTokens = 700

// widestLines caps how many high-spread lines the prompt lists.
const widestLines = 5

// Generator asks an LLM for a summary of an assessment payload.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Generator. maxTokens <= 0 selects the default budget.
func New(client anthropic.Client, model string, maxTokens int64) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{client: client, model: model, maxTokens: maxTokens}
}

// Summarize renders the payload into a compact digest and asks the model
// for an assessment. Token usage is logged with estimated cost.
func (g *Generator) Summarize(ctx context.Context, payload *model.AssessmentPayload) (string, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildPrompt(payload)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "insight: summarize")
	}
	resp.Usage.LogCost(g.model, "insight")

	text := resp.Text()
	if text == "" {
		return "", eris.New("insight: model returned no text")
	}
	return text, nil
}

// BuildPrompt renders the digest the model sees: totals, the widest-spread
// lines, section subtotals, label tallies, and exceptions.
func BuildPrompt(payload *model.AssessmentPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", payload.ProjectName)

	var ittTotal float64
	for _, line := range payload.Lines {
		ittTotal += line.Amount
	}
	fmt.Fprintf(&b, "ITT total: %.2f across %d lines\n", ittTotal, len(payload.Lines))

	b.WriteString("\nContractor totals (accepted and manual matches only):\n")
	for _, c := range payload.Contractors {
		if ittTotal > 0 {
			fmt.Fprintf(&b, "- %s: %.2f (%+.1f%% vs ITT)\n", c.Name, c.Total, (c.Total-ittTotal)/ittTotal*100)
		} else {
			fmt.Fprintf(&b, "- %s: %.2f\n", c.Name, c.Total)
		}
	}

	names := make(map[string]string, len(payload.Contractors))
	for _, c := range payload.Contractors {
		names[c.ContractorID] = c.Name
	}

	if widest := rankBySpread(payload.Lines); len(widest) > 0 {
		b.WriteString("\nWidest-priced lines (low vs high bid):\n")
		for _, w := range widest {
			fmt.Fprintf(&b, "- %s: ITT %.2f, bids %.2f to %.2f\n", w.line.Description, w.line.Amount, w.lo, w.hi)
		}
	}

	if len(payload.Sections) > 0 {
		b.WriteString("\nSections:\n")
		for _, s := range payload.Sections {
			fmt.Fprintf(&b, "- %s: ITT %.2f", s.Name, s.TotalITTAmount)
			for _, c := range payload.Contractors {
				if total, ok := s.TotalsByContractor[c.ContractorID]; ok {
					fmt.Fprintf(&b, ", %s %.2f", c.Name, total)
				}
			}
			if s.ExceptionCount > 0 {
				fmt.Fprintf(&b, " (%d exceptions)", s.ExceptionCount)
			}
			b.WriteString("\n")
		}
	}

	if labels := tallyLabels(payload.Lines); len(labels) > 0 {
		b.WriteString("\nLabel-priced cells: ")
		b.WriteString(strings.Join(labels, ", "))
		b.WriteString("\n")
	}

	if len(payload.Exceptions) > 0 {
		fmt.Fprintf(&b, "\nExceptions (%d, scope priced outside the bill):\n", len(payload.Exceptions))
		for _, e := range payload.Exceptions {
			switch {
			case e.Amount != nil:
				fmt.Fprintf(&b, "- %s by %s: %.2f\n", e.Description, e.ContractorName, *e.Amount)
			case e.AmountLabel != "":
				fmt.Fprintf(&b, "- %s by %s: %s\n", e.Description, e.ContractorName, e.AmountLabel)
			default:
				fmt.Fprintf(&b, "- %s by %s\n", e.Description, e.ContractorName)
			}
		}
	}

	if payload.Inconsistencies > 0 {
		fmt.Fprintf(&b, "\nNote: %d match records were skipped as inconsistent during aggregation.\n", payload.Inconsistencies)
	}
	return b.String()
}

type spreadLine struct {
	line   model.LineAssessment
	lo, hi float64
	frac   float64
}

// rankBySpread picks the lines with the largest gap between cheapest and
// dearest priced cells, relative to the ITT amount.
func rankBySpread(lines []model.LineAssessment) []spreadLine {
	var ranked []spreadLine
	for _, line := range lines {
		lo, hi, ok := priceRange(line)
		if !ok || line.Amount <= 0 || hi == lo {
			continue
		}
		ranked = append(ranked, spreadLine{line: line, lo: lo, hi: hi, frac: (hi - lo) / line.Amount})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].frac > ranked[j].frac })
	if len(ranked) > widestLines {
		ranked = ranked[:widestLines]
	}
	return ranked
}

func priceRange(line model.LineAssessment) (lo, hi float64, ok bool) {
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
	return lo, hi, priced >= 2
}

// tallyLabels counts label-priced cells, formatted as `"Included" x3`,
// most frequent first.
func tallyLabels(lines []model.LineAssessment) []string {
	counts := make(map[string]int)
	for _, line := range lines {
		for _, c := range line.Cells {
			if c.AmountLabel != "" {
				counts[c.AmountLabel]++
			}
		}
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for i, label := range labels {
		labels[i] = fmt.Sprintf("%q x%d", label, counts[label])
	}
	return labels
}
