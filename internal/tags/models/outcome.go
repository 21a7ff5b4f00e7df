package models

// Outcome says what a link, unlink or delete did, and if nothing, why.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	// OutcomeNoop means the pair was already in the requested state.
	OutcomeNoop
	OutcomeTagNotFound
	OutcomeCaseNotFound
	// OutcomeInUse means the tag is still linked and was not deleted.
	OutcomeInUse
)

// Applied is the plain boolean answer: true only when state changed.
func (o Outcome) Applied() bool {
	return o == OutcomeApplied
}

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoop:
		return "noop"
	case OutcomeTagNotFound:
		return "tag_not_found"
	case OutcomeCaseNotFound:
		return "case_not_found"
	case OutcomeInUse:
		return "in_use"
	}
	return "unknown"
}
