package ingest

import "strings"

// chunkTokens is the target chunk size. Rough estimate: 1 token ~= 4
// characters.
const chunkTokens = 500

// SplitText splits text into chunks that fit within the token budget,
// preferring paragraph boundaries and falling back to lines.
func SplitText(text string, maxTokens int) []string {
	maxChars := maxTokens * 4
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, "\n\n")))
			current = nil
			currentLen = 0
		}
	}

	for _, para := range paragraphs {
		if len(para) > maxChars {
			flush()
			chunks = append(chunks, splitLines(para, maxChars)...)
			continue
		}
		if currentLen+len(para)+2 > maxChars {
			flush()
		}
		current = append(current, para)
		currentLen += len(para) + 2
	}
	flush()
	return chunks
}

// splitLines handles a single oversized paragraph.
func splitLines(text string, maxChars int) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	var current []string
	currentLen := 0

	for _, line := range lines {
		lineLen := len(line) + 1
		if currentLen+lineLen > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			currentLen = 0
		}
		current = append(current, line)
		currentLen += lineLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
