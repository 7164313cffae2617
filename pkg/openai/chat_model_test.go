package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	last goopenai.ChatCompletionRequest
	resp goopenai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.last = req
	return f.resp, f.err
}

func newTestModel(t *testing.T, fc *fakeCompleter) *ChatModel {
	t.Helper()
	m, err := NewChatModel(Config{APIKey: "k", Model: "gpt-4o-mini", MaxTokens: 100, Temperature: 0.2})
	require.NoError(t, err)
	m.client = fc
	return m
}

func TestChatModel_GenerateMapsMessages(t *testing.T) {
	fc := &fakeCompleter{resp: goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{
			Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: "crm-agent"},
			FinishReason: goopenai.FinishReasonStop,
		}},
		Usage: goopenai.Usage{PromptTokens: 12, CompletionTokens: 2, TotalTokens: 14},
	}}
	m := newTestModel(t, fc)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("classify"),
		schema.UserMessage("track my order"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "c1", Function: schema.FunctionCall{Name: "list_users", Arguments: "{}"}}}),
		schema.ToolMessage(`{"data":[]}`, "c1"),
	})
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, out.Role)
	assert.Equal(t, "crm-agent", out.Content)
	assert.Equal(t, 14, out.ResponseMeta.Usage.TotalTokens)
	assert.Equal(t, "stop", out.ResponseMeta.FinishReason)

	req := fc.last
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 100, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, goopenai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "list_users", req.Messages[2].ToolCalls[0].Function.Name)
	assert.Equal(t, goopenai.ChatMessageRoleTool, req.Messages[3].Role)
	assert.Equal(t, "c1", req.Messages[3].ToolCallID)
}

func TestChatModel_OptionsOverrideDefaults(t *testing.T) {
	fc := &fakeCompleter{resp: goopenai.ChatCompletionResponse{Choices: []goopenai.ChatCompletionChoice{{}}}}
	m := newTestModel(t, fc)

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")},
		model.WithTemperature(0.9), model.WithModel("gpt-3.5-turbo"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", fc.last.Model)
	assert.InDelta(t, 0.9, fc.last.Temperature, 1e-6)
}

func TestChatModel_WithToolsReturnsCopy(t *testing.T) {
	fc := &fakeCompleter{resp: goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{
			Message: goopenai.ChatCompletionMessage{ToolCalls: []goopenai.ToolCall{{
				ID: "call_1", Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{Name: "search_contact", Arguments: `{"query":"Reza"}`},
			}}},
			FinishReason: goopenai.FinishReasonToolCalls,
		}},
	}}
	base := newTestModel(t, fc)

	withTools, err := base.WithTools([]*schema.ToolInfo{{
		Name: "search_contact",
		Desc: "search contacts",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "keyword", Required: true},
		}),
	}})
	require.NoError(t, err)
	assert.Empty(t, base.tools)

	out, err := withTools.Generate(context.Background(), []*schema.Message{schema.UserMessage("find Reza")})
	require.NoError(t, err)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "call_1", out.ToolCalls[0].ID)
	assert.Equal(t, "search_contact", out.ToolCalls[0].Function.Name)

	require.Len(t, fc.last.Tools, 1)
	fn := fc.last.Tools[0].Function
	assert.Equal(t, "search_contact", fn.Name)
	params, err := json.Marshal(fn.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(params), `"query"`)
}

func TestChatModel_Errors(t *testing.T) {
	m := newTestModel(t, &fakeCompleter{err: errors.New("rate limited")})
	_, err := m.Generate(context.Background(), nil)
	assert.ErrorContains(t, err, "rate limited")

	m = newTestModel(t, &fakeCompleter{})
	_, err = m.Generate(context.Background(), nil)
	assert.ErrorContains(t, err, "no choices")

	_, err = NewChatModel(Config{Model: "x"})
	assert.Error(t, err)
}

func TestChatModel_StreamSingleChunk(t *testing.T) {
	fc := &fakeCompleter{resp: goopenai.ChatCompletionResponse{Choices: []goopenai.ChatCompletionChoice{{
		Message: goopenai.ChatCompletionMessage{Content: "hello"},
	}}}}
	m := newTestModel(t, fc)

	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer sr.Close()

	chunk, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hello", chunk.Content)
}
