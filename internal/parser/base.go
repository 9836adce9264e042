// Package parser turns pasted bank-statement text into parsed transactions.
package parser

import (
	"fjacquet/txn-import/internal/logging"
)

// BaseParser carries the logger shared by parser implementations.
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser creates a new BaseParser. A nil logger falls back to a
// text logger at info level.
func NewBaseParser(logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	return BaseParser{
		logger: logger,
	}
}
