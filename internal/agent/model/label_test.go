package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want AgentLabel
	}{
		{"crm-agent", LabelCRMAgent},
		{"  crm-agent\n", LabelCRMAgent},
		{"CRM-Agent ", LabelCRMAgent},
		{"unknown", LabelUnknown},
		{"", LabelUnknown},
		{"crm agent", LabelUnknown},
		{"crm-agent.", LabelUnknown},
		{"'crm-agent'", LabelUnknown},
		{"label: crm-agent", LabelUnknown},
		{"crm-agent\nunknown", LabelUnknown},
		{"sales-agent", LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseLabel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestAgentLabel_Valid(t *testing.T) {
	assert.True(t, LabelCRMAgent.Valid())
	assert.True(t, LabelUnknown.Valid())
	assert.False(t, AgentLabel("CRM-AGENT").Valid())
	assert.False(t, AgentLabel("").Valid())
}
