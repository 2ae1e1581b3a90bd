package lead

import "errors"

// ErrInvalidTransition signals a lifecycle move the state machine does not
// allow.
var ErrInvalidTransition = errors.New("lead: invalid status transition")

// transitions is the closed lifecycle table. Terminal closed_* states are set
// manually, never by the classifier or dispatcher.
var transitions = map[Status][]Status{
	StatusNew:          {StatusClassified},
	StatusClassified:   {StatusClassified, StatusResearched, StatusAnalyzed},
	StatusResearched:   {StatusOutreachSent},
	StatusAnalyzed:     {StatusOutreachSent},
	StatusOutreachSent: {StatusQuoted, StatusClosedWon, StatusClosedLost},
	StatusQuoted:       {StatusClosedWon, StatusClosedLost},
}

// CanTransition reports whether moving from one lifecycle status to another
// is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusClassified, StatusResearched, StatusAnalyzed,
		StatusOutreachSent, StatusQuoted, StatusClosedWon, StatusClosedLost:
		return true
	}
	return false
}
