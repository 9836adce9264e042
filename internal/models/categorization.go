package models

import "time"

// Source names where a category came from.
type Source string

// Categorization sources
const (
	SourceRuleBased Source = "rule-based"
	SourceAI        Source = "ai"
	SourceManual    Source = "manual"
)

// Provenance records how a category was assigned. The zero value is not a
// valid provenance; use RuleBased, AI or Manual.
type Provenance struct {
	source Source
	reason string
	at     time.Time
}

// RuleBased is the provenance of a keyword rule match.
func RuleBased(reason string, at time.Time) Provenance {
	return Provenance{source: SourceRuleBased, reason: reason, at: at}
}

// AI is the provenance of an AI categorization.
func AI(at time.Time) Provenance {
	return Provenance{source: SourceAI, at: at}
}

// Manual is the provenance of a category typed in by the user.
func Manual(at time.Time) Provenance {
	return Provenance{source: SourceManual, at: at}
}

// Source returns the variant tag.
func (p Provenance) Source() Source { return p.source }

// Reason returns the fallback reason. Only rule-based provenance carries one.
func (p Provenance) Reason() string { return p.reason }

// Timestamp returns when the category was assigned.
func (p Provenance) Timestamp() time.Time { return p.at }

// IsZero reports whether no provenance has been assigned.
func (p Provenance) IsZero() bool { return p.source == "" }

// String renders the provenance for listings.
func (p Provenance) String() string {
	switch p.source {
	case SourceRuleBased:
		if p.reason != "" {
			return string(p.source) + " (" + p.reason + ")"
		}
		return string(p.source)
	case "":
		return "none"
	default:
		return string(p.source) + " @ " + p.at.Format(time.RFC3339)
	}
}

// Categorization binds a category to the provenance that produced it. It is
// immutable: reassigning a category means building a new Categorization.
type Categorization struct {
	category   string
	provenance Provenance
}

// NewCategorization pairs a category with its provenance.
func NewCategorization(category string, provenance Provenance) Categorization {
	return Categorization{category: category, provenance: provenance}
}

// Category returns the assigned category name.
func (c Categorization) Category() string { return c.category }

// Provenance returns how the category was assigned.
func (c Categorization) Provenance() Provenance { return c.provenance }
