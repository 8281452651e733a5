package kb

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer bounds text by subword-token count. Truncation keeps the head
// of the text and never splits a token.
type Tokenizer interface {
	// Count returns the number of tokens in s.
	Count(s string) int
	// Truncate returns s cut down to at most budget tokens, computed by
	// decoding the first budget encoded tokens back to text.
	Truncate(s string, budget int) string
}

// TiktokenTokenizer implements Tokenizer with the cl100k_base encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates the production tokenizer.
func NewTokenizer() (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load tokenizer encoding: %w", err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

func (t *TiktokenTokenizer) Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	ids := t.enc.Encode(s, nil, nil)
	if len(ids) <= budget {
		return s
	}
	return t.enc.Decode(ids[:budget])
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)
