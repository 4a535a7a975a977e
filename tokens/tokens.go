// Package tokens provides token counting for budget accounting. The
// primary counter is backed by tiktoken BPE encodings; a bytes-per-token
// estimator serves as a dependency-free fallback, and an LRU wrapper
// memoizes counts for text that repeats across candidate evaluations.
package tokens

import "fmt"

// DefaultEncoding is the tiktoken encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// HeuristicEncoding is the reserved encoding name selecting the
// bytes-per-token estimator instead of a BPE vocabulary.
const HeuristicEncoding = "heuristic"

// defaultCacheSize bounds the memoized counts per counter.
const defaultCacheSize = 4096

// Counter counts text in model tokens. Implementations must be safe for
// concurrent use.
type Counter interface {
	// Count returns the token count of text. Counting never fails once a
	// counter is constructed; unknown bytes fall back to byte-level
	// tokens.
	Count(text string) int
	// Encoding returns the name of the encoding the counter implements.
	Encoding() string
}

// New returns a memoized counter for the named encoding. The reserved name
// "heuristic" selects the estimator; anything else must be a tiktoken
// encoding name. An empty name selects DefaultEncoding.
func New(encoding string) (Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if encoding == HeuristicEncoding {
		return Estimator{}, nil
	}
	tk, err := NewCounter(encoding)
	if err != nil {
		return nil, err
	}
	cached, err := NewCachedCounter(tk, defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("wrapping counter cache: %w", err)
	}
	return cached, nil
}
