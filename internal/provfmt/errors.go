package provfmt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrFileExists is returned when a write would replace an existing file
// and overwriting was not requested.
var ErrFileExists = errors.New("file already exists")

// maxContent bounds the content quoted in a DeserializeError.
const maxContent = 200

// FormatError is the failure of one format's parser.
type FormatError struct {
	Format Format
	Err    error
}

// DeserializeError reports content that no format could parse.
type DeserializeError struct {
	Content []byte
	Errs    []FormatError
}

func (e *DeserializeError) Error() string {
	var sb strings.Builder
	sb.WriteString("deserialize: no format could parse the content")
	for _, fe := range e.Errs {
		fmt.Fprintf(&sb, "\n  %s: %v", fe.Format, fe.Err)
	}
	fmt.Fprintf(&sb, "\n  content: %q", e.Excerpt())
	return sb.String()
}

// Unwrap exposes the per-format errors to errors.Is and errors.As.
func (e *DeserializeError) Unwrap() []error {
	out := make([]error, len(e.Errs))
	for i, fe := range e.Errs {
		out[i] = fe.Err
	}
	return out
}

// Excerpt returns the start of the offending content.
func (e *DeserializeError) Excerpt() string {
	s := string(e.Content)
	if len(s) <= maxContent {
		return s
	}
	cut := maxContent
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
