package model

import "strings"

// AgentLabel is the routing decision for a single turn.
type AgentLabel string

const (
	LabelCRMAgent AgentLabel = "crm-agent"
	LabelUnknown  AgentLabel = "unknown"
)

// String returns the label's wire value.
func (l AgentLabel) String() string {
	return string(l)
}

// Valid reports whether l is one of the two routable labels.
func (l AgentLabel) Valid() bool {
	return l == LabelCRMAgent || l == LabelUnknown
}

// ParseLabel maps raw classifier output onto the closed label set.
// The output is trimmed and lower-cased, then compared exactly against
// "crm-agent". Everything else, including near misses such as "crm agent"
// or "crm-agent.", becomes LabelUnknown.
func ParseLabel(raw string) AgentLabel {
	if strings.ToLower(strings.TrimSpace(raw)) == string(LabelCRMAgent) {
		return LabelCRMAgent
	}
	return LabelUnknown
}
