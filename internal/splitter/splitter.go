// Package splitter breaks text into size-bounded chunks using a separator hierarchy.
package splitter

import "strings"

// DefaultSeparators lists split points from coarsest to finest: paragraph
// break, line break, word break. The empty-string sentinel splits per
// character before the fixed-width window fallback applies.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Split returns ordered chunks of at most chunkSize characters, preferring
// the coarsest separator that produces more than one chunk. When no separator
// helps, a fixed-width window of chunkSize slides across the raw text,
// advancing by chunkSize-overlap so each window revisits the previous one's
// last overlap characters. Chunks that still exceed chunkSize (a single
// unsplittable segment) are re-split by the same algorithm.
func Split(text string, chunkSize, overlap int, separators []string) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	for _, sep := range separators {
		parts := strings.Split(text, sep)
		if len(parts) < 2 {
			continue
		}
		chunks := pack(parts, sep, chunkSize)
		if len(chunks) < 2 {
			continue
		}
		return resplit(chunks, chunkSize, overlap, separators)
	}
	return window(text, chunkSize, overlap)
}

// pack greedily joins consecutive segments back together with their separator
// while the running chunk stays within chunkSize, flushing on overflow.
func pack(parts []string, sep string, chunkSize int) []string {
	var chunks []string
	current := ""
	started := false
	for _, part := range parts {
		if !started {
			current = part
			started = true
			continue
		}
		if len(current)+len(sep)+len(part) <= chunkSize {
			current += sep + part
			continue
		}
		chunks = append(chunks, current)
		current = part
	}
	if started {
		chunks = append(chunks, current)
	}
	return chunks
}

func resplit(chunks []string, chunkSize, overlap int, separators []string) []string {
	var out []string
	for _, c := range chunks {
		if len(c) <= chunkSize {
			out = append(out, c)
			continue
		}
		out = append(out, Split(c, chunkSize, overlap, separators)...)
	}
	return out
}

// window slides a chunkSize window across text. The step never drops below 1
// character so the loop always advances.
func window(text string, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
