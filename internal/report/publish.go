package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/resilience"
	"github.com/bidwell-group/tender-cli/pkg/notion"
)

// PublishAssessment creates a Notion page summarizing the assessment in the
// configured database and returns the page URL. Transient API failures are
// retried; the 3 req/s throttle lives in the client.
func PublishAssessment(ctx context.Context, client notion.Client, dbID string, payload *model.AssessmentPayload, summary string) (string, error) {
	req := buildAssessmentPage(dbID, payload, summary)

	cfg := resilience.DefaultRetryConfig()
	cfg.ShouldRetry = notionRetryable
	cfg.OnRetry = resilience.RetryLogger("notion", "create_page")

	page, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*notionapi.Page, error) {
		return client.CreatePage(ctx, req)
	})
	if err != nil {
		return "", err
	}

	zap.L().Info("report: assessment published",
		zap.String("project_id", payload.ProjectID),
		zap.String("page_url", page.URL),
	)
	return page.URL, nil
}

// notionRetryable treats Notion's 429 and 5xx answers as transient.
func notionRetryable(err error) bool {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.Status)
	}
	return resilience.IsTransient(err)
}

func buildAssessmentPage(dbID string, payload *model.AssessmentPayload, summary string) *notionapi.PageCreateRequest {
	title := fmt.Sprintf("%s assessment %s", payload.ProjectName, payload.GeneratedAt.Format("2006-01-02"))
	generated := notionapi.Date(payload.GeneratedAt)
	total := billTotal(payload.Lines)

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}},
			},
		},
		"ITT Total": notionapi.NumberProperty{
			Number: total,
		},
		"Contractors": notionapi.NumberProperty{
			Number: float64(len(payload.Contractors)),
		},
		"Exceptions": notionapi.NumberProperty{
			Number: float64(len(payload.Exceptions)),
		},
		"Inconsistencies": notionapi.NumberProperty{
			Number: float64(payload.Inconsistencies),
		},
		"Generated": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &generated,
			},
		},
	}

	children := []notionapi.Block{
		heading("Totals"),
		bullet(fmt.Sprintf("ITT: %.2f across %d lines", total, len(payload.Lines))),
	}
	for _, c := range payload.Contractors {
		line := fmt.Sprintf("%s: %.2f", c.Name, c.Total)
		if total > 0 {
			line += fmt.Sprintf(" (%+.1f%% vs ITT)", (c.Total-total)/total*100)
		}
		children = append(children, bullet(line))
	}

	if len(payload.Exceptions) > 0 {
		children = append(children, bullet(fmt.Sprintf("%d exception items priced outside the bill", len(payload.Exceptions))))
	}

	if summary != "" {
		children = append(children, heading("Summary"), paragraph(summary))
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
		Children:   children,
	}
}

func billTotal(lines []model.LineAssessment) float64 {
	var total float64
	for _, line := range lines {
		total += line.Amount
	}
	return total
}

func heading(text string) notionapi.Block {
	return notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text}},
			},
		},
	}
}

func paragraph(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text}},
			},
		},
	}
}

func bullet(text string) notionapi.Block {
	return notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text}},
			},
		},
	}
}
