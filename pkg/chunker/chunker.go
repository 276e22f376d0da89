package chunker

import (
	"github.com/aurahq/aura/pkg/token"
)

type ChunkerConfig struct {
	MinTokens     int
	MaxTokens     int
	OverlapTokens int
}

// Chunker splits document text into overlapping token windows. Output is
// deterministic for a fixed codec and configuration.
type Chunker struct {
	codec  token.Codec
	config ChunkerConfig
}

func NewWithConfig(codec token.Codec, config ChunkerConfig) *Chunker {
	if config.MinTokens == 0 {
		config.MinTokens = 500
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 800
	}
	if config.OverlapTokens == 0 {
		config.OverlapTokens = 100
	}
	if config.OverlapTokens >= config.MaxTokens {
		config.OverlapTokens = config.MaxTokens / 4
	}
	// A full window must never count as a tiny tail, or the loop would merge
	// and stop before covering the rest of the text.
	if config.MinTokens > config.MaxTokens {
		config.MinTokens = config.MaxTokens
	}

	return &Chunker{
		codec:  codec,
		config: config,
	}
}

// Chunk walks a sliding window of MaxTokens over the encoded text, advancing
// by MaxTokens-OverlapTokens so consecutive chunks share exactly
// OverlapTokens tokens. A trailing fragment shorter than MinTokens/2 is
// merged onto the previous chunk instead of being emitted on its own.
//
// The empty document yields a single chunk equal to the empty text: callers
// always get at least one chunk and every token of the input is covered.
func (c *Chunker) Chunk(text string) []string {
	tokens := c.codec.Encode(text)

	var chunks []string
	var prevWindow []int

	step := c.config.MaxTokens - c.config.OverlapTokens
	start := 0

	for start < len(tokens) {
		end := start + c.config.MaxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]

		if len(window) < c.config.MinTokens/2 && len(chunks) > 0 {
			// Tiny dangling tail: fold it into the previous chunk.
			merged := make([]int, 0, len(prevWindow)+len(window))
			merged = append(merged, prevWindow...)
			merged = append(merged, window...)
			chunks[len(chunks)-1] = c.codec.Decode(merged)
			break
		}

		chunks = append(chunks, c.codec.Decode(window))
		prevWindow = window
		start += step
	}

	if len(chunks) == 0 {
		chunks = []string{text}
	}

	return chunks
}
