package refresh

// Action is the outcome of evaluating one (message, starboard) pair.
type Action int

const (
	// ActionNone leaves the mirror as it is, editing it in place if one
	// exists.
	ActionNone Action = iota
	// ActionAdd posts a mirror if none exists.
	ActionAdd
	// ActionRemove deletes the mirror if one exists.
	ActionRemove
)

// String returns the action name for logging.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	default:
		return "none"
	}
}

// DecisionInput is everything the decision depends on. It is captured
// as a value so the decision stays a pure function.
type DecisionInput struct {
	Points         int
	Required       int
	RequiredRemove int
	Forced         bool
	Trashed        bool
	Deleted        bool
	LinkDeletes    bool
}

// Decide evaluates the rules in order, each later rule overriding the
// earlier ones. The thresholds are not validated here; a starboard
// configured with required_remove above required simply removes.
func Decide(in DecisionInput) Action {
	action := ActionNone

	if in.Points >= in.Required {
		action = ActionAdd
	}

	if in.Points <= in.RequiredRemove {
		action = ActionRemove
	}

	if in.Deleted && in.LinkDeletes {
		action = ActionRemove
	}

	if in.Forced {
		action = ActionAdd
	}

	if in.Trashed {
		action = ActionRemove
	}

	return action
}
