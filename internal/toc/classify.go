package toc

import (
	"strings"

	"jumptoc/pkg/models"
)

// typeRule is one classification predicate. The rules are evaluated in
// order and a later match overwrites an earlier one, so the override
// order is an explicit contract rather than an accident of if-ordering.
type typeRule struct {
	matches func(string) bool
	label   string
}

var typeRules = []typeRule{
	{func(s string) bool { return strings.Contains(s, "lead color") }, models.TypeCover},
	{func(s string) bool { return strings.HasPrefix(s, "color") }, models.TypeColor},
	{func(s string) bool { return strings.Contains(s, "one-shot") }, models.TypeOneShot},
}

// ClassifyType maps a raw chapter title to a chapter type. Matching is
// case-insensitive; rows matching no rule are Normal.
func ClassifyType(chapterTitle string) string {
	lower := strings.ToLower(chapterTitle)
	label := models.TypeNormal
	for _, r := range typeRules {
		if r.matches(lower) {
			label = r.label
		}
	}
	return label
}
