package domain

// InputType tells the client how to render the reply's answer controls.
type InputType string

const (
	// InputText expects a free-text answer.
	InputText InputType = "text"
	// InputOptions expects one of the listed options.
	InputOptions InputType = "options"
	// InputMixed carries multiple sub-question sections, each with its
	// own input type.
	InputMixed InputType = "mixed"
)

// Section is one sub-question within a mixed reply.
type Section struct {
	Question   string    `json:"question"`
	InputType  InputType `json:"inputType"`
	Options    []string  `json:"options"`
	AllowOther bool      `json:"allowOther"`
}

// StructuredReply is the normalized output of one chat turn.
//
// Invariants: when InputType is InputMixed, Sections is non-empty; when
// InputType is InputOptions, Options is non-empty. Replies produced by
// the defensive parser always satisfy both.
type StructuredReply struct {
	Text       string    `json:"text"`
	InputType  InputType `json:"inputType"`
	Options    []string  `json:"options"`
	AllowOther bool      `json:"allowOther"`
	Sections   []Section `json:"sections"`
}

// Valid reports whether the reply satisfies the StructuredReply invariants.
func (r StructuredReply) Valid() bool {
	switch r.InputType {
	case InputText:
		return true
	case InputOptions:
		return len(r.Options) > 0
	case InputMixed:
		return len(r.Sections) > 0
	default:
		return false
	}
}

// Comment is one piece of localized reviewer feedback on a summary.
// Comments are consumed once per revision call and never persisted.
type Comment struct {
	HighlightedText string `json:"highlightedText"`
	Comment         string `json:"comment"`
}
