// Package chunker splits normalized text into overlapping word-windowed
// chunks for the detection pipeline.
package chunker

import (
	"regexp"
	"strings"

	"github.com/veridetect/plagiscan/internal/domain"
)

// Config controls chunking behavior. Sizes are counted in whitespace
// tokens, not characters.
type Config struct {
	ChunkSize    int // Target words per chunk.
	ChunkOverlap int // Overlap between consecutive chunks, in words.
	MinChunk     int // Trailing windows smaller than this are merged back.
}

// DefaultConfig is the 100/20/30 preset (see the service's "default"
// chunking preset).
func DefaultConfig() Config {
	return Config{
		ChunkSize:    100,
		ChunkOverlap: 20,
		MinChunk:     30,
	}
}

// LegacyConfig is the 250/50/50 preset carried as an alternative, per the
// two historical default sets this service reconciles.
func LegacyConfig() Config {
	return Config{
		ChunkSize:    250,
		ChunkOverlap: 50,
		MinChunk:     50,
	}
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs to a single space and strips control
// characters, preserving casing and punctuation.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = controlChars.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Chunk splits normalized text into a deterministic, position-ordered
// sequence of overlapping word-window chunks. Empty or whitespace-only
// input yields zero chunks. docID is attached to each produced chunk so
// callers can embed the result directly without a second pass.
func Chunk(text string, docID string, cfg Config) []domain.Chunk {
	cfg = withDefaults(cfg)

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	words := strings.Fields(normalized)
	if len(words) == 0 {
		return nil
	}

	step := cfg.ChunkSize - cfg.ChunkOverlap

	var chunks []domain.Chunk
	position := 0
	prevEnd := 0

	for wordIndex := 0; wordIndex < len(words); wordIndex += step {
		end := wordIndex + cfg.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		window := words[wordIndex:end]

		if len(window) < cfg.MinChunk && len(chunks) > 0 {
			// Trailing runt: merge its new tail words into the previous
			// chunk rather than dropping them, so the chunk sequence
			// still reproduces the full normalized text.
			if end > prevEnd {
				tail := words[prevEnd:end]
				last := &chunks[len(chunks)-1]
				last.Text = last.Text + " " + strings.Join(tail, " ")
				last.WordCount += len(tail)
			}
			break
		}

		chunkText := strings.Join(window, " ")
		chunks = append(chunks, domain.Chunk{
			DocID:     docID,
			Text:      chunkText,
			Position:  position,
			WordCount: len(window),
		})
		position++
		prevEnd = end

		if end == len(words) {
			break
		}
	}

	for i := range chunks {
		chunks[i].ID = chunkID(docID, chunks[i].Position)
	}

	return chunks
}

func chunkID(docID string, position int) string {
	var b strings.Builder
	b.WriteString(docID)
	b.WriteByte('#')
	b.WriteString(itoa(position))
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = d.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = d.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = d.MinChunk
	}
	return cfg
}

// WordCount returns the whitespace-token count of text.
func WordCount(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}
