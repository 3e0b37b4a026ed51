package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/liamcryan/ieuler/internal/models"
)

// ProblemDetails fetches the full description for one puzzle. The site
// answers an unknown id with a redirect away from the puzzle URL, which
// maps to ErrProblemDoesNotExist.
func (c *Client) ProblemDetails(ctx context.Context, id int) (models.PuzzleRecord, error) {
	pageURL := c.problemURL(id)
	doc, finalURL, err := c.get(ctx, pageURL)
	if err != nil {
		return models.PuzzleRecord{}, err
	}
	if finalURL != nil && finalURL.String() != pageURL {
		return models.PuzzleRecord{}, fmt.Errorf("problem %d: %w", id, ErrProblemDoesNotExist)
	}

	title := strings.TrimSpace(doc.Find("h2").First().Text())
	content := doc.Find(".problem_content").First()
	if content.Length() == 0 {
		return models.PuzzleRecord{}, fmt.Errorf("problem %d page missing problem content", id)
	}

	// Links and images inside the description are site-relative; rewrite
	// them absolute so the saved description stands alone.
	content.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && !strings.Contains(src, "://") {
			img.SetAttr("src", c.URL(src))
		}
	})
	content.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && !strings.Contains(href, "://") {
			a.SetAttr("href", c.URL(href))
		}
	})

	html, err := content.Html()
	if err != nil {
		return models.PuzzleRecord{}, fmt.Errorf("problem %d content: %w", id, err)
	}

	return models.PuzzleRecord{
		ID:         id,
		Title:      title,
		Problem:    html,
		ProblemURL: pageURL,
	}, nil
}

// NewProblems fetches details for puzzles past the given id until the
// site reports one that does not exist, returning any found.
func (c *Client) NewProblems(ctx context.Context, after int) ([]models.PuzzleRecord, error) {
	var found []models.PuzzleRecord
	for id := after + 1; ; id++ {
		record, err := c.ProblemDetails(ctx, id)
		if errors.Is(err, ErrProblemDoesNotExist) {
			return found, nil
		}
		if err != nil {
			return found, err
		}
		found = append(found, record)
	}
}
