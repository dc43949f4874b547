package ingest

import "strings"

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// ChunkText splits text into chunks of roughly chunkSize characters with
// chunkOverlap characters of trailing context carried into the next
// chunk. Paragraph boundaries are preferred split points; a paragraph
// longer than chunkSize is split on the sliding window directly.
func ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	paragraphs := strings.Split(text, "\n\n")

	var current strings.Builder
	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > chunkSize {
			flush()
			chunks = append(chunks, splitLong(para)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > chunkSize {
			tail := overlapTail(current.String())
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitLong chunks an oversized paragraph with a plain sliding window.
func splitLong(para string) []string {
	var chunks []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(para); start += step {
		end := start + chunkSize
		if end >= len(para) {
			chunks = append(chunks, strings.TrimSpace(para[start:]))
			break
		}
		chunks = append(chunks, strings.TrimSpace(para[start:end]))
	}
	return chunks
}

// overlapTail returns the last chunkOverlap characters of a chunk,
// widened left to the nearest word boundary.
func overlapTail(chunk string) string {
	chunk = strings.TrimSpace(chunk)
	if len(chunk) <= chunkOverlap {
		return chunk
	}
	tail := chunk[len(chunk)-chunkOverlap:]
	if idx := strings.IndexAny(tail, " \n\t"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
