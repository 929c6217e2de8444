package detector

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var markupPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][^>]*>`)

// sanitizeText strips HTML markup left over from scraped review pages and
// collapses whitespace. Text without tags is only whitespace-normalised.
func sanitizeText(raw string, stripMarkup bool) string {
	if stripMarkup && markupPattern.MatchString(raw) {
		if text, ok := markupText(raw); ok {
			raw = text
		}
	}
	return strings.Join(strings.Fields(raw), " ")
}

func markupText(raw string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", false
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").AppendHtml(" ")
	return doc.Text(), true
}

type sentence struct {
	words       int
	exclamatory bool
}

// tokens splits text into word tokens. Apostrophes inside words are kept so
// contractions such as "don't" stay whole.
func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}

// sentences splits text on runs of terminal punctuation. A sentence whose
// terminator contains '!' counts as exclamatory.
func sentences(text string) []sentence {
	var out []sentence
	var current strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isTerminal(r) {
			current.WriteRune(r)
			continue
		}
		exclaim := false
		for ; i < len(runes) && isTerminal(runes[i]); i++ {
			if runes[i] == '!' {
				exclaim = true
			}
		}
		i--
		if s, ok := makeSentence(current.String(), exclaim); ok {
			out = append(out, s)
		}
		current.Reset()
	}
	if s, ok := makeSentence(current.String(), false); ok {
		out = append(out, s)
	}
	return out
}

func makeSentence(text string, exclaim bool) (sentence, bool) {
	n := len(tokens(text))
	if n == 0 {
		return sentence{}, false
	}
	return sentence{words: n, exclamatory: exclaim}, true
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isShouted reports whether a word is written entirely in capitals. Single
// letters ("I", "A") never count.
func isShouted(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}

// longestPunctuationRun returns the longest run of consecutive '!' or '?'.
func longestPunctuationRun(text string) int {
	best, run := 0, 0
	for _, r := range text {
		if r == '!' || r == '?' {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}

// longestLetterRun returns the longest run of the same letter, case-folded,
// e.g. 4 for "soooo".
func longestLetterRun(text string) int {
	best, run := 0, 0
	var prev rune
	for _, r := range text {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) && r == prev {
			run++
		} else if unicode.IsLetter(r) {
			run = 1
		} else {
			run = 0
		}
		if run > best {
			best = run
		}
		prev = r
	}
	return best
}
