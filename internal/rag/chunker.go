package rag

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	paragraphSeparator  = "\n\n"
)

// Split breaks text on blank lines and greedily merges the paragraphs into
// chunks of at most size runes. Consecutive chunks share trailing paragraphs
// totalling up to overlap runes. A single paragraph longer than size becomes its
// own chunk.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var pieces []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}

	sepLen := utf8.RuneCountInString(paragraphSeparator)
	var (
		chunks  []string
		current []string
		total   int
	)
	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return n
	}

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if len(current) > 0 && joinedLen(n) > size {
			chunks = append(chunks, strings.Join(current, paragraphSeparator))
			for len(current) > 0 && (total > overlap || joinedLen(n) > size) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total = joinedLen(n)
		current = append(current, p)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, paragraphSeparator))
	}
	return chunks
}
