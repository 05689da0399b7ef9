package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrChainBroken means a previous-issue link could not be located on some
// page. The walk halts there; the already-collected prefix of the chain is
// still returned and is valid to process.
var ErrChainBroken = errors.New("previous-issue link not found")

// FetchedIssue pairs an issue identifier with its fetched page, so the
// chain walk never fetches the same page twice.
type FetchedIssue struct {
	ID   string
	Page *Page
}

// Walker assembles a chronological chain of issues going backward from a
// starting point. Each fetch depends on the link discovered in the
// previous response, so the walk is strictly sequential.
type Walker struct {
	Fetcher Fetcher
	// Stem is prepended to relative previous-issue links.
	Stem string
}

func NewWalker(fetcher Fetcher, stem string) *Walker {
	return &Walker{Fetcher: fetcher, Stem: stem}
}

// Walk fetches the starting issue plus n predecessors. On a broken chain
// it returns the collected prefix together with ErrChainBroken; the caller
// chooses whether partial results are acceptable.
func (w *Walker) Walk(ctx context.Context, start string, n int) ([]FetchedIssue, error) {
	seen := map[string]bool{start: true}
	current := start

	page, err := w.Fetcher.Fetch(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("fetch start issue: %w", err)
	}
	chain := []FetchedIssue{{ID: current, Page: page}}

	for i := 0; i < n; i++ {
		link := chain[len(chain)-1].Page.PrevIssueLink
		if link == "" {
			return chain, fmt.Errorf("%w: after %s", ErrChainBroken, current)
		}
		next := link
		if !strings.HasPrefix(link, "http") {
			next = w.Stem + link
		}
		if seen[next] {
			// cycle guard: never fetch the same issue twice
			return chain, nil
		}
		seen[next] = true

		page, err := w.Fetcher.Fetch(ctx, next)
		if err != nil {
			return chain, fmt.Errorf("fetch %s: %w", next, err)
		}
		chain = append(chain, FetchedIssue{ID: next, Page: page})
		current = next
	}

	return chain, nil
}
