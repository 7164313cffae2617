package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AppendDoesNotAlias(t *testing.T) {
	base := make(History, 1, 4) // spare capacity would let a naive append alias
	base[0] = Turn{User: "hi", Assistant: "hello", Agent: LabelUnknown}

	a := base.Append(Turn{User: "a", Assistant: "A", Agent: LabelCRMAgent})
	b := base.Append(Turn{User: "b", Assistant: "B", Agent: LabelUnknown})

	require.Len(t, base, 1)
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, "a", a[1].User)
	assert.Equal(t, "b", b[1].User)
	assert.Equal(t, base[0], a[0])
	assert.Equal(t, base[0], b[0])
}

func TestHistory_Last(t *testing.T) {
	_, ok := History(nil).Last()
	assert.False(t, ok)

	h := History{{User: "1"}, {User: "2", Agent: LabelCRMAgent}}
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "2", last.User)
	assert.Equal(t, LabelCRMAgent, last.Agent)
}

func TestHistory_Clone(t *testing.T) {
	assert.NotNil(t, History(nil).Clone())

	h := History{{User: "1"}}
	c := h.Clone()
	c[0].User = "changed"
	assert.Equal(t, "1", h[0].User)
}
