package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm-chatbot-api/server/internal/agent/graph/tools"
	"github.com/crm-chatbot-api/server/internal/agent/model"
)

func TestSummaryInstruction(t *testing.T) {
	assert.Equal(t,
		"You are a chat history summarizer. If there is no chat history, return nothing. Summarize this chat history:",
		SummaryInstruction())
}

func TestRenderClassifierSystem_NoHistory(t *testing.T) {
	out, err := RenderClassifierSystem(context.Background(), "What's the weather?", "", nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Return only one word: 'crm-agent' or 'unknown'.")
	assert.Contains(t, out, "The user just asked: 'What's the weather?'. Classify this appropriately.")
	assert.NotContains(t, out, "follow-up")
	assert.NotContains(t, out, "summary of the chat history")
}

func TestRenderClassifierSystem_WithHistory(t *testing.T) {
	history := model.History{
		{User: "list users", Assistant: "- Ali\n- Sara", Agent: model.LabelCRMAgent},
	}
	out, err := RenderClassifierSystem(context.Background(), "and their cards?", "  The user listed CRM users.  ", history)
	require.NoError(t, err)

	assert.Contains(t, out, "Here is a summary of the chat history:\nThe user listed CRM users.\n")
	assert.Contains(t, out, "The last question asked by the user is: 'list users' and the crm-agent answered: '- Ali\n- Sara'.")
	assert.Contains(t, out, "If this new question is a follow-up or continuation, return the same agent. Otherwise, classify the new question.")
	assert.NotContains(t, out, "The user just asked")
}

func TestRenderClassifierSystem_InvalidStoredLabel(t *testing.T) {
	history := model.History{{User: "hi", Assistant: "hello", Agent: "sales-agent"}}
	out, err := RenderClassifierSystem(context.Background(), "x", "", history)
	require.NoError(t, err)
	assert.Contains(t, out, "and the unknown answered:")
}

func TestRenderCRMAgentSystem(t *testing.T) {
	out, err := RenderCRMAgentSystem(context.Background(), "summary text")
	require.NoError(t, err)

	for _, name := range tools.Names() {
		assert.Contains(t, out, "- "+name)
	}
	assert.Contains(t, out, "You are the crm-agent")
	assert.Contains(t, out, "without summarization")
	assert.Contains(t, out, "The chat history is summarized as follows: summary text")
}

func TestRenderUnknownSystem(t *testing.T) {
	out, err := RenderUnknownSystem(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "CRM fallback assistant")
	assert.Contains(t, out, "state it in more detail")
}
