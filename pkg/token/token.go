package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Codec encodes text to a flat token sequence and back. The chunker and the
// context builder both count against the same codec so their budgets agree.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// BPE wraps a tiktoken byte-pair encoding.
type BPE struct {
	enc *tiktoken.Tiktoken
}

// NewBPE loads the named tiktoken encoding, e.g. "cl100k_base".
func NewBPE(encoding string) (*BPE, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", encoding, err)
	}
	return &BPE{enc: enc}, nil
}

func (b *BPE) Encode(text string) []int {
	return b.enc.Encode(text, nil, nil)
}

func (b *BPE) Decode(tokens []int) string {
	return b.enc.Decode(tokens)
}

func (b *BPE) Count(text string) int {
	return len(b.Encode(text))
}
