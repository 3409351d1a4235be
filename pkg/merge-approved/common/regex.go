package common

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// RegexItem matches either case-insensitively against Text or against the
// compiled expression.
type RegexItem struct {
	Text  string
	Regex *regexp.Regexp
}

func NewRegexItem(text string) (RegexItem, error) {
	re, err := regexp.Compile(text)
	if err != nil {
		return RegexItem{}, errors.Wrapf(err, "`%s' is not a valid regex", text)
	}
	return RegexItem{Text: text, Regex: re}, nil
}

func MustNewRegexItem(text string) RegexItem {
	i, err := NewRegexItem(text)
	if err != nil {
		panic(err)
	}
	return i
}

func (sl *RegexItem) Equal(s string) bool {
	if strings.EqualFold(s, sl.Text) {
		return true
	}
	return sl.Regex != nil && sl.Regex.MatchString(s)
}

type RegexSlice []RegexItem

// ParseRegexSlice parses a comma separated list of expressions.
// Empty items are ignored.
func ParseRegexSlice(s string) (RegexSlice, error) {
	parts := strings.Split(s, ",")
	items := make(RegexSlice, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item, err := NewRegexItem(part)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (sl RegexSlice) String() string {
	s := make([]string, len(sl))
	for i := range sl {
		s[i] = sl[i].Text
	}
	return strings.Join(s, ", ")
}

// ContainsOneOf returns the text of the first expression that matches one of
// the items, or an empty string.
func (sl RegexSlice) ContainsOneOf(items ...string) string {
	for _, item := range items {
		for i := range sl {
			if sl[i].Equal(item) {
				return sl[i].Text
			}
		}
	}
	return ""
}
