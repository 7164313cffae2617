package model

// Turn is one completed question/answer exchange plus the label of the
// handler that produced the answer.
type Turn struct {
	User      string     `json:"user"`
	Assistant string     `json:"assistant"`
	Agent     AgentLabel `json:"agent"`
}

// History is the ordered list of turns of a session, oldest first.
type History []Turn

// Last returns the most recent turn, if any.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// Append returns a new history with t added at the end. The receiver is
// never modified and the result never shares its backing array.
func (h History) Append(t Turn) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, t)
}

// Clone returns a copy of h that does not alias the original.
func (h History) Clone() History {
	if h == nil {
		return History{}
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
