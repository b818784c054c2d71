package stock

import (
	"fmt"
	"strings"
)

// Policy selects when a drop below the buffer raises a low-stock signal.
type Policy string

const (
	// PolicyCrossingOrDecrement fires when the total crosses from at-or-above
	// the buffer to below it, and again on every further decrement while low.
	PolicyCrossingOrDecrement Policy = "crossing_or_decrement"
	// PolicyStrictCrossing fires only on the crossing itself.
	PolicyStrictCrossing Policy = "strict_crossing"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyCrossingOrDecrement, nil
	case PolicyCrossingOrDecrement, PolicyStrictCrossing:
		return p, nil
	default:
		return "", fmt.Errorf("unknown low stock policy %q", s)
	}
}

type Detector struct {
	Policy Policy
}

func NewDetector(p Policy) Detector {
	if p == "" {
		p = PolicyCrossingOrDecrement
	}
	return Detector{Policy: p}
}

// ShouldAlert compares the quantity before and after one change against buffer.
func (d Detector) ShouldAlert(oldQty, newQty, buffer int, isDecrement bool) bool {
	if newQty == oldQty {
		return false
	}
	wasOK := oldQty >= buffer
	nowLow := newQty < buffer

	if wasOK && nowLow {
		return true
	}
	if d.Policy == PolicyStrictCrossing {
		return false
	}
	return nowLow && isDecrement
}

// Subject is whatever owns the threshold: a category total, or a single item
// when items carry their own buffer.
type Subject struct {
	Kind   string // "category" | "item"
	ID     uint
	Buffer int
}

type Evaluation struct {
	Subject  Subject
	OldQty   int
	NewQty   int
	LowStock bool
	Alert    bool
}

func (d Detector) Evaluate(s Subject, oldQty, newQty int) Evaluation {
	return Evaluation{
		Subject:  s,
		OldQty:   oldQty,
		NewQty:   newQty,
		LowStock: newQty < s.Buffer,
		Alert:    d.ShouldAlert(oldQty, newQty, s.Buffer, newQty < oldQty),
	}
}
