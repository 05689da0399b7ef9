package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jumptoc/internal/toc"
)

// Page is what one fetched issue page contributes to the pipeline: its raw
// table-of-contents rows and the link to the chronologically previous
// issue (empty when the page has none).
type Page struct {
	Rows          []toc.RawRow
	PrevIssueLink string
}

// Fetcher retrieves one issue page by identifier.
type Fetcher interface {
	Fetch(ctx context.Context, issueID string) (*Page, error)
}

var (
	rePrevIssue = regexp.MustCompile(`<a class="prev-issue-link" href="(.*?)">`)
	reTOCTable  = regexp.MustCompile(`(?s)<table[^>]*class="[^"]*chapters[^"]*"[^>]*>(.*?)</table>`)
	reTableRow  = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	reTableCell = regexp.MustCompile(`(?s)<t[dh][^>]*>(.*?)</t[dh]>`)
	reAnyTag    = regexp.MustCompile(`<[^>]+>`)
)

// HTTPFetcher fetches live issue pages. Requests are rate limited so a
// multi-week walk stays polite.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	limiter   *rate.Limiter
}

func NewHTTPFetcher(userAgent string, requestsPerSecond float64) *HTTPFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: 15 * time.Second},
		UserAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, issueID string) (*Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issueID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", issueID, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", issueID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", issueID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", issueID, resp.StatusCode)
	}

	return ParsePage(string(body)), nil
}

// ParsePage extracts the chapters table and previous-issue link from raw
// page HTML. Parsing is deliberately regex-thin: the source markup is
// stable and robust HTML handling is not this package's job.
func ParsePage(pageHTML string) *Page {
	page := &Page{}

	if m := rePrevIssue.FindStringSubmatch(pageHTML); m != nil {
		page.PrevIssueLink = m[1]
	}

	table := reTOCTable.FindStringSubmatch(pageHTML)
	if table == nil {
		return page
	}

	for _, row := range reTableRow.FindAllStringSubmatch(table[1], -1) {
		cells := reTableCell.FindAllStringSubmatch(row[1], -1)
		if len(cells) < 3 {
			continue
		}
		placement, err := strconv.Atoi(cellText(cells[0][1]))
		if err != nil {
			// header row or junk
			continue
		}
		page.Rows = append(page.Rows, toc.RawRow{
			Placement:    placement,
			Title:        cellText(cells[1][1]),
			ChapterTitle: cellText(cells[2][1]),
		})
	}

	return page
}

func cellText(cell string) string {
	return strings.TrimSpace(html.UnescapeString(reAnyTag.ReplaceAllString(cell, "")))
}
