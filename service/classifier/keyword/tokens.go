package keyword

import (
	"strings"

	"github.com/viant/parsly"
)

const (
	wordCode = iota
	separatorCode
)

var (
	wordToken      = parsly.NewToken(wordCode, "Word", &wordMatcher{})
	separatorToken = parsly.NewToken(separatorCode, "Separator", &separatorMatcher{})
)

// wordMatcher matches letters, digits, apostrophes and multi-byte runes
type wordMatcher struct{}

func (m *wordMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if !isWordByte(cursor.Input[i]) {
			break
		}
		matched++
	}
	return matched
}

// separatorMatcher matches a run of anything that is not a word
type separatorMatcher struct{}

func (m *separatorMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if isWordByte(cursor.Input[i]) {
			break
		}
		matched++
	}
	return matched
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '\'' || c >= 0x80
}

// tokenize splits text into lower-cased words
func tokenize(text string) []string {
	cursor := parsly.NewCursor("", []byte(text), 0)
	var words []string
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(wordToken, separatorToken)
		switch matched.Code {
		case wordCode:
			words = append(words, strings.ToLower(matched.Text(cursor)))
		case separatorCode:
		default:
			cursor.Pos++
		}
	}
	return words
}
