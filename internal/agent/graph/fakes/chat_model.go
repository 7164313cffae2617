// Package fakes provides scripted Eino chat models for tests.
package fakes

import (
	"context"
	"fmt"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Responder produces the reply for one Generate call.
type Responder func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

// ChatModel is a thread-safe scripted chat model. Calls are answered by
// Respond when set, otherwise by Replies in order; the last reply repeats.
type ChatModel struct {
	Name    string
	Respond Responder
	Replies []*schema.Message
	Err     error

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

// Text returns a model that always answers with content.
func Text(name, content string) *ChatModel {
	return &ChatModel{Name: name, Replies: []*schema.Message{Reply(content)}}
}

// Reply builds an assistant message carrying fixed token usage.
func Reply(content string, calls ...schema.ToolCall) *schema.Message {
	msg := schema.AssistantMessage(content, calls)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: "stop",
		Usage:        &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
	}
	return msg
}

// ToolCall builds a function tool call.
func ToolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	m.calls = append(m.calls, snapshot)
	n := len(m.calls)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Respond != nil {
		return m.Respond(ctx, input)
	}
	if len(m.Replies) == 0 {
		return nil, fmt.Errorf("fake model %s: no replies scripted", m.Name)
	}
	i := n - 1
	if i >= len(m.Replies) {
		i = len(m.Replies) - 1
	}
	out := *m.Replies[i]
	out.ToolCalls = append([]schema.ToolCall(nil), out.ToolCalls...)
	return &out, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

// WithTools records the bound tools and returns the same model so tests can
// inspect calls made through the bound instance.
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return m, nil
}

// Calls returns the inputs of every Generate call so far.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *ChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *ChatModel) BoundTools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

var _ einomodel.ToolCallingChatModel = (*ChatModel)(nil)
