package parsererror

import "fmt"

// PreviewLimit is the maximum rune length of a line preview.
const PreviewLimit = 50

// LineError describes one import line that could not be parsed. Line is
// 1-based and counts every line of the raw input, blank ones included.
type LineError struct {
	Line    int
	Preview string
	Reason  string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Preview)
}

// Preview truncates text to PreviewLimit runes, marking the cut with "...".
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit-3]) + "..."
}

// CategorizationError represents a categorization failure
type CategorizationError struct {
	Description string
	Strategy    string
	Err         error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %q using %s: %v",
		e.Description, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents input that contains no usable transaction
// lines at all.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}
