package parser

import (
	"regexp"
	"strings"
	"time"

	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/parsererror"

	"github.com/shopspring/decimal"
)

// ExpectedFormat describes an import line for error messages.
const ExpectedFormat = "YYYY-MM-DD DESCRIPTION AMOUNT"

// The description group is greedy, so the amount is always the last token.
var linePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (.+) (-?\d+\.\d{2})$`)

const (
	reasonNoMatch          = "does not match " + ExpectedFormat
	reasonInvalidDate      = "invalid calendar date"
	reasonEmptyDescription = "empty description"
)

// match is a line that satisfied the import shape.
type match struct {
	date        time.Time
	description string
	amount      decimal.Decimal
}

// LineParser parses one transaction per line. It holds no state between
// calls, so Parse and Validate are safe for concurrent use.
type LineParser struct {
	BaseParser
	categorizer Categorizer
}

// NewLineParser creates a LineParser that categorizes every parsed line
// with the given categorizer.
func NewLineParser(categorizer Categorizer, logger logging.Logger) *LineParser {
	return &LineParser{
		BaseParser:  NewBaseParser(logger),
		categorizer: categorizer,
	}
}

// Parse converts text into parsed transactions. Malformed lines are
// reported in Result.Errors and never abort the batch.
func (p *LineParser) Parse(text string) Result {
	var result Result
	scan(text, func(lineNo int, line string, m *match, lineErr *parsererror.LineError) {
		result.Attempted++
		if lineErr != nil {
			result.Errors = append(result.Errors, *lineErr)
			return
		}
		category := models.CategoryImported
		if p.categorizer != nil {
			category = p.categorizer.Categorize(m.description)
		}
		result.Transactions = append(result.Transactions,
			models.NewParsedTransaction(m.date, m.description, m.amount, category))
	})

	p.logger.Debug("Parsed import text",
		logging.Field{Key: logging.FieldCount, Value: result.Attempted},
		logging.Field{Key: logging.FieldSucceeded, Value: result.Succeeded()},
		logging.Field{Key: logging.FieldFailed, Value: len(result.Errors)})

	return result
}

// Validate runs the same line matching as Parse without categorizing.
func (p *LineParser) Validate(text string) Validation {
	var v Validation
	scan(text, func(lineNo int, line string, m *match, lineErr *parsererror.LineError) {
		v.Attempted++
		if lineErr != nil {
			v.Errors = append(v.Errors, *lineErr)
			return
		}
		v.Succeeded++
	})
	return v
}

// scan visits every non-blank line with either a match or a line error.
func scan(text string, visit func(lineNo int, line string, m *match, lineErr *parsererror.LineError)) {
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}
		lineNo := i + 1
		m, reason := matchLine(line)
		if reason != "" {
			visit(lineNo, line, nil, &parsererror.LineError{
				Line:    lineNo,
				Preview: parsererror.Preview(line),
				Reason:  reason,
			})
			continue
		}
		visit(lineNo, line, m, nil)
	}
}

// matchLine is the single definition of a valid import line.
func matchLine(line string) (*match, string) {
	groups := linePattern.FindStringSubmatch(line)
	if groups == nil {
		return nil, reasonNoMatch
	}

	date, err := time.Parse(models.DateLayout, groups[1])
	if err != nil {
		return nil, reasonInvalidDate
	}

	description := strings.TrimSpace(groups[2])
	if description == "" {
		return nil, reasonEmptyDescription
	}

	amount, err := decimal.NewFromString(groups[3])
	if err != nil {
		return nil, reasonNoMatch
	}

	return &match{date: date, description: description, amount: amount}, ""
}
