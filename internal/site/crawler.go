package site

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/models"
)

// defaultPageCount is used when the listing carries no page-index links.
const defaultPageCount = 15

var pageIndexRe = regexp.MustCompile(`=([0-9]+)$`)

func (c *Client) listingURL(page int) string {
	if page <= 1 {
		return c.URL("archives")
	}
	return c.URL(fmt.Sprintf("archives;page=%d", page))
}

// PageCount inspects the listing for the highest page-index link.
func (c *Client) PageCount(ctx context.Context) (int, error) {
	doc, _, err := c.get(ctx, c.URL("archives"))
	if err != nil {
		return 0, err
	}

	pages := defaultPageCount
	anchors := doc.Find("a")
	for i := anchors.Length() - 1; i >= 0; i-- {
		href, ok := anchors.Eq(i).Attr("href")
		if !ok {
			continue
		}
		if m := pageIndexRe.FindStringSubmatch(href); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				pages = n
				break
			}
		}
	}
	return pages, nil
}

// CrawlPage fetches one listing page and parses its table into records.
// The first listing row supplies the column headers; a trailing column
// with no header text is the solved-indicator icon. A page without the
// expected table yields an empty result rather than an error, so a
// partial crawl never aborts the whole run.
func (c *Client) CrawlPage(ctx context.Context, page int) ([]models.PuzzleRecord, error) {
	pageURL := c.listingURL(page)
	doc, _, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var (
		headers []string
		records []models.PuzzleRecord
		rowErr  error
	)

	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if tr.Find(".id_column").Length() == 0 {
			return true
		}

		if headers == nil {
			tr.Find("th").Each(func(_ int, th *goquery.Selection) {
				if text := strings.TrimSpace(th.Text()); text != "" {
					headers = append(headers, text)
				}
			})
			return true
		}

		record := models.PuzzleRecord{PageURL: pageURL}
		cells := tr.Find("td")
		for j := 0; j < cells.Length(); j++ {
			td := cells.Eq(j)
			if j < len(headers) {
				value := strings.TrimSpace(td.Text())
				switch headers[j] {
				case "ID":
					id, err := strconv.Atoi(value)
					if err != nil {
						rowErr = fmt.Errorf("listing %s: bad puzzle id %q: %w", pageURL, value, err)
						return false
					}
					record.ID = id
				case "Description / Title":
					record.Title = value
				case "Solved By":
					record.SolvedBy = value
				case "Difficulty":
					record.Difficulty = value
				}
				continue
			}

			// Unnamed trailing column: the solved-indicator icon.
			solved := false
			if img := td.Find("img").First(); img.Length() > 0 {
				solved = img.AttrOr("title", "") == "Solved"
			}
			record.Solved = &solved
			break
		}

		record.ProblemURL = c.problemURL(record.ID)
		records = append(records, record)
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}
	if headers == nil {
		c.log.Warn("listing page has no puzzle table", zap.String("url", pageURL))
		return nil, nil
	}
	return records, nil
}

// CrawlAll determines the page count and crawls every listing page in
// increasing order, concatenating the results. Fetches are sequential
// to bound the request rate.
func (c *Client) CrawlAll(ctx context.Context) ([]models.PuzzleRecord, error) {
	pages, err := c.PageCount(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.PuzzleRecord
	for page := 1; page <= pages; page++ {
		records, err := c.CrawlPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}
