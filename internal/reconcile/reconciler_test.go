package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumptoc/pkg/models"
)

type fakeDirectory struct {
	titles []string
}

func (d fakeDirectory) Contains(title string) bool {
	for _, t := range d.titles {
		if t == title {
			return true
		}
	}
	return false
}

func (d fakeDirectory) AllTitles() []string { return d.titles }

func testDirectory() fakeDirectory {
	return fakeDirectory{titles: []string{
		"One Piece",
		"Me & Roboco",
		"Witch Watch",
		"Sakamoto Days",
	}}
}

func rec(series string) models.ChapterRecord {
	return models.ChapterRecord{Series: series, ReleaseDate: "2025-08-03", Type: models.TypeNormal}
}

func TestPartitionAppliesCorrectionsBeforeLookup(t *testing.T) {
	r := New(testDirectory(), Corrections(nil))

	valid, invalid := r.Partition([]models.ChapterRecord{
		rec("Me and Roboco"),
		rec("WITCH WATCH"),
		rec("One Piece"),
	})

	require.Len(t, valid, 3)
	assert.Empty(t, invalid)
	assert.Equal(t, "Me & Roboco", valid[0].Series)
	assert.Equal(t, "Witch Watch", valid[1].Series)
}

func TestPartitionQuarantinesUnknownTitles(t *testing.T) {
	r := New(testDirectory(), Corrections(nil))

	valid, invalid := r.Partition([]models.ChapterRecord{
		rec("One Piece"),
		rec("Brand New Series"),
	})

	require.Len(t, valid, 1)
	require.Len(t, invalid, 1)
	assert.Equal(t, "Brand New Series", invalid[0].Record.Series)
}

func TestPartitionSuggestsCloseMatches(t *testing.T) {
	r := New(testDirectory(), Corrections(nil))

	_, invalid := r.Partition([]models.ChapterRecord{
		rec("Sakamato Days"), // one-letter typo
	})

	require.Len(t, invalid, 1)
	assert.Equal(t, "Sakamoto Days", invalid[0].Suggestion)
}

func TestPartitionExtraCorrections(t *testing.T) {
	extra := map[string]string{"ONEPIECE": "One Piece"}
	r := New(testDirectory(), Corrections(extra))

	valid, invalid := r.Partition([]models.ChapterRecord{rec("ONEPIECE")})
	require.Len(t, valid, 1)
	assert.Empty(t, invalid)
	assert.Equal(t, "One Piece", valid[0].Series)
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()
	acc.AddIssue([]models.ChapterRecord{rec("One Piece")}, nil)
	acc.AddIssue([]models.ChapterRecord{rec("Witch Watch")}, []Quarantined{{Record: rec("??")}})
	acc.Warn("issue X skipped")

	assert.Len(t, acc.Valid, 2)
	assert.Len(t, acc.Invalid, 1)
	assert.Equal(t, 2, acc.IssuesBuilt)
	assert.Equal(t, []string{"issue X skipped"}, acc.Warnings)
}
