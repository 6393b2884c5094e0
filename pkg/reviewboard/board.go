package reviewboard

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// Board pushes match results that need manual review to a Notion database.
type Board struct {
	client     Client
	databaseID string
}

// NewBoard creates a Board writing to the given Notion database.
func NewBoard(client Client, databaseID string) *Board {
	return &Board{client: client, databaseID: databaseID}
}

// NeedsReview reports whether a result belongs on the review board. High
// confidence matches are committed automatically and skip the queue.
func NeedsReview(res model.MatchResult) bool {
	return res.Best == nil || res.Best.Confidence != model.ConfidenceHigh
}

// PushQueue creates one review page per result that needs manual review.
// Returns the number of pages created. Page creation stops at the first
// error so a retry does not skip items.
func (b *Board) PushQueue(ctx context.Context, runID string, results []model.MatchResult) (int, error) {
	created := 0
	for _, res := range results {
		if !NeedsReview(res) {
			continue
		}

		req := b.pageRequest(runID, res)
		if _, err := b.client.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "reviewboard: push order %s", res.Item.OrderID)
		}
		created++
	}

	zap.L().Info("review queue pushed",
		zap.String("run_id", runID),
		zap.Int("pages", created),
	)
	return created, nil
}

func (b *Board) pageRequest(runID string, res model.MatchResult) *notionapi.PageCreateRequest {
	title := res.Item.OrderName
	if title == "" {
		title = res.Item.OrderID
	}

	props := notionapi.Properties{
		"Order": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(title),
		},
		"Run": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(runID),
		},
		"Item": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(res.Item.Title),
		},
		"Status": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: "Queued"},
		},
		"Confidence": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: confidenceLabel(res)},
		},
		"Notes": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(summarize(res)),
		},
	}

	if res.Best != nil {
		props["Purchase"] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(res.Best.Purchase.OrderNumber),
		}
		props["Score"] = notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: res.Best.Score,
		}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(b.databaseID),
		},
		Properties: props,
	}
}

func confidenceLabel(res model.MatchResult) string {
	if res.Best == nil {
		return "none"
	}
	return string(res.Best.Confidence)
}

// summarize joins the structured reasons into a single line for the board.
func summarize(res model.MatchResult) string {
	var parts []string
	for _, n := range res.Notes {
		parts = append(parts, reasonText(n))
	}
	if res.Best != nil {
		for _, r := range res.Best.Reasons {
			parts = append(parts, reasonText(r))
		}
	}
	if len(parts) == 0 && res.Best == nil {
		parts = append(parts, "no candidate passed the filters")
	}
	return strings.Join(parts, "; ")
}

func reasonText(r model.Reason) string {
	if r.Detail == "" {
		return string(r.Code)
	}
	return string(r.Code) + ": " + r.Detail
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
