package optimize

import (
	"regexp"
	"strings"

	"github.com/c360studio/semtrim/lang"
)

// Element is one parsed item inside a collection literal.
type Element struct {
	// Start and End are byte offsets of the untrimmed span within the
	// interior text.
	Start, End int
	// Text is the trimmed element source.
	Text string
	// Key is the trimmed key of a key/value entry, empty otherwise.
	Key string
	// Value is the trimmed value: the part after the key/value
	// separator, or the whole element when there is no key.
	Value string
	// Nested marks the value as a collection that can shrink
	// recursively.
	Nested bool
}

// SplitSpec configures element splitting for one collection node.
type SplitSpec struct {
	// Separator between elements, e.g. "," or " ".
	Separator string
	// KeyValueSep splits an element into key and value, e.g. ":" or
	// "=>". Empty for sequences.
	KeyValueSep string
	// Wrapper marks call-like elements (listOf(...)) as nested
	// collections.
	Wrapper *regexp.Regexp
	// Comment is the language's comment syntax; separators inside
	// comments embedded in the literal are not split points.
	Comment lang.CommentStyle
}

var closerFor = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// SplitElements splits the interior text of a collection literal into
// elements, skipping separators nested inside brackets, quotes, factory
// call parentheses, and comments. Consecutive and trailing separators
// yield no elements.
//
// When nesting never balances the whole interior is returned as a single
// opaque element with ok=false; callers keep such nodes intact rather
// than risking an invalid rewrite.
func SplitElements(interior string, spec SplitSpec) (elements []Element, ok bool) {
	sep := spec.Separator
	if sep == "" {
		sep = ","
	}

	var stack []byte
	inQuote := byte(0)
	start := 0
	balanced := true

scan:
	for i := 0; i < len(interior); {
		c := interior[i]

		if inQuote != 0 {
			switch {
			case c == '\\' && i+1 < len(interior):
				i += 2
			case c == inQuote:
				inQuote = 0
				i++
			default:
				i++
			}
			continue
		}

		if spec.Comment.Line != "" && strings.HasPrefix(interior[i:], spec.Comment.Line) {
			nl := strings.IndexByte(interior[i:], '\n')
			if nl < 0 {
				break scan
			}
			i += nl + 1
			continue
		}
		if spec.Comment.HasBlock() && strings.HasPrefix(interior[i:], spec.Comment.BlockOpen) {
			end := strings.Index(interior[i+len(spec.Comment.BlockOpen):], spec.Comment.BlockClose)
			if end < 0 {
				balanced = false
				break scan
			}
			i += len(spec.Comment.BlockOpen) + end + len(spec.Comment.BlockClose)
			continue
		}

		if len(stack) == 0 && strings.HasPrefix(interior[i:], sep) {
			appendElement(&elements, interior, start, i, spec)
			i += len(sep)
			start = i
			continue
		}

		switch c {
		case '"', '\'', '`':
			inQuote = c
			i++
		case '(', '[', '{':
			stack = append(stack, closerFor[c])
			i++
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				balanced = false
				break scan
			}
			stack = stack[:len(stack)-1]
			i++
		default:
			i++
		}
	}

	if inQuote != 0 || len(stack) > 0 {
		balanced = false
	}
	if !balanced {
		text := strings.TrimSpace(interior)
		return []Element{{Start: 0, End: len(interior), Text: text, Value: text}}, false
	}

	appendElement(&elements, interior, start, len(interior), spec)
	return elements, true
}

// appendElement emits the span [start, end) unless it is blank, resolving
// the key/value split and the nested flag.
func appendElement(elements *[]Element, interior string, start, end int, spec SplitSpec) {
	text := strings.TrimSpace(interior[start:end])
	if text == "" {
		return
	}

	el := Element{Start: start, End: end, Text: text, Value: text}
	if spec.KeyValueSep != "" {
		if idx := topLevelIndex(text, spec.KeyValueSep); idx >= 0 {
			el.Key = strings.TrimSpace(text[:idx])
			el.Value = strings.TrimSpace(text[idx+len(spec.KeyValueSep):])
		}
	}
	el.Nested = isNested(el.Value, spec.Wrapper)
	*elements = append(*elements, el)
}

// topLevelIndex finds sep at bracket/quote depth zero within text, or -1.
// A ":" separator never matches inside a "::" scope operator.
func topLevelIndex(text, sep string) int {
	var stack []byte
	inQuote := byte(0)
	for i := 0; i < len(text); {
		c := text[i]
		if inQuote != 0 {
			switch {
			case c == '\\' && i+1 < len(text):
				i += 2
			case c == inQuote:
				inQuote = 0
				i++
			default:
				i++
			}
			continue
		}
		if len(stack) == 0 && strings.HasPrefix(text[i:], sep) {
			if sep == ":" && (i+1 < len(text) && text[i+1] == ':' || i > 0 && text[i-1] == ':') {
				i++
				continue
			}
			return i
		}
		switch c {
		case '"', '\'', '`':
			inQuote = c
			i++
		case '(', '[', '{':
			stack = append(stack, closerFor[c])
			i++
		case ')', ']', '}':
			if len(stack) == 0 {
				return -1
			}
			stack = stack[:len(stack)-1]
			i++
		default:
			i++
		}
	}
	return -1
}

// isNested reports whether value text is itself a collection: bracketed,
// or a call to a known wrapper.
func isNested(value string, wrapper *regexp.Regexp) bool {
	if value == "" {
		return false
	}
	switch value[0] {
	case '[', '{', '(':
		return true
	}
	if wrapper == nil {
		return false
	}
	open := strings.IndexAny(value, "([")
	if open <= 0 {
		return false
	}
	callee := strings.TrimSpace(value[:open])
	callee = strings.TrimSuffix(callee, "!")
	return wrapper.MatchString(callee)
}
