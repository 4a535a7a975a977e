package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a tiktoken BPE encoding. The encoder
// is loaded once at construction and is safe for concurrent use.
type TiktokenCounter struct {
	enc  *tiktoken.Tiktoken
	name string
}

// NewCounter loads the named tiktoken encoding.
func NewCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc, name: encoding}, nil
}

// NewCounterForModel resolves the encoding registered for a model name,
// falling back to cl100k_base for models tiktoken does not know.
func NewCounterForModel(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("loading fallback encoding: %w", err)
		}
		return &TiktokenCounter{enc: enc, name: DefaultEncoding}, nil
	}
	return &TiktokenCounter{enc: enc, name: model}, nil
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Encoding returns the loaded encoding name.
func (c *TiktokenCounter) Encoding() string {
	return c.name
}
