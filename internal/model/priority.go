package model

import "fmt"

// Priority ranks a Task's importance for placement and preemption decisions.
// Values are deliberately 1-indexed so the zero value is not a valid Priority.
type Priority int

const (
	PriorityNone Priority = iota + 1
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// MaxPriority is the highest value Priority can take; objective-value math
// normalizes against it.
const MaxPriority = PriorityCritical

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the five defined priority levels.
func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityCritical
}

// ParsePriority parses an integer in [1,5] into a Priority.
func ParsePriority(v int) (Priority, error) {
	p := Priority(v)
	if !p.Valid() {
		return 0, fmt.Errorf("priority value %d out of range [%d,%d]", v, int(PriorityNone), int(PriorityCritical))
	}
	return p, nil
}
