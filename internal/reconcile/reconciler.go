package reconcile

import (
	"jumptoc/pkg/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Directory is the authoritative list of known series titles.
type Directory interface {
	Contains(title string) bool
	AllTitles() []string
}

// Quarantined is a record whose title is not in the directory: one-shots,
// specials, new or renamed series, or a gap in the correction table. It is
// expected, recoverable data, never an error.
type Quarantined struct {
	Record models.ChapterRecord `json:"record"`
	// Suggestion is the closest directory title by fuzzy distance, when
	// one is close enough to be worth reviewing.
	Suggestion string `json:"suggestion,omitempty"`
}

// Reconciler canonicalizes scraped titles and partitions records into
// insertable vs quarantined.
type Reconciler struct {
	dir         Directory
	corrections map[string]string

	// normalized directory titles, computed once for fuzzy suggestions
	normTitles []string
	normToReal map[string]string
}

func New(dir Directory, corrections map[string]string) *Reconciler {
	r := &Reconciler{
		dir:         dir,
		corrections: corrections,
		normToReal:  make(map[string]string),
	}
	for _, title := range dir.AllTitles() {
		n := normalizeTitle(title)
		if n == "" {
			continue
		}
		if _, seen := r.normToReal[n]; !seen {
			r.normTitles = append(r.normTitles, n)
		}
		r.normToReal[n] = title
	}
	return r
}

// Partition canonicalizes every record's title and splits the issue into
// known-series records and quarantined ones.
func (r *Reconciler) Partition(records []models.ChapterRecord) (valid []models.ChapterRecord, invalid []Quarantined) {
	for _, rec := range records {
		if canonical, ok := r.corrections[rec.Series]; ok {
			rec.Series = canonical
		}
		if r.dir.Contains(rec.Series) {
			valid = append(valid, rec)
			continue
		}
		invalid = append(invalid, Quarantined{
			Record:     rec,
			Suggestion: r.suggest(rec.Series),
		})
	}
	return valid, invalid
}

// maxSuggestionDistance bounds how far a fuzzy match may be before it is
// noise rather than a likely misspelling.
const maxSuggestionDistance = 4

func (r *Reconciler) suggest(title string) string {
	pat := normalizeTitle(title)
	if pat == "" || len(r.normTitles) == 0 {
		return ""
	}
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, cand := range r.normTitles {
		if d := fuzzy.LevenshteinDistance(pat, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	if best == "" {
		return ""
	}
	return r.normToReal[best]
}
