package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinSentenceChars is the shortest trimmed sentence kept by SplitSentences
const MinSentenceChars = 10

// SplitSentences segments text into sentences.
// A boundary is a '.', '!' or '?' followed by whitespace and an uppercase ASCII letter.
// Sentences are trimmed and those shorter than MinSentenceChars runes are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}

		// Whitespace run after the terminator
		j := i + 1
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r) {
				break
			}
			j += size
		}
		if j == i+1 || j >= len(text) || text[j] < 'A' || text[j] > 'Z' {
			continue
		}

		sentences = appendSentence(sentences, text[start:i+1])
		start = j
		i = j - 1
	}

	return appendSentence(sentences, text[start:])
}

func appendSentence(sentences []string, s string) []string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < MinSentenceChars {
		return sentences
	}
	return append(sentences, s)
}
