package classifier

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm-chatbot-api/server/internal/agent/graph/conversations"
	"github.com/crm-chatbot-api/server/internal/agent/graph/fakes"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
)

func newClassifier(t *testing.T, oracle, summarizer *fakes.ChatModel) *Classifier {
	t.Helper()
	c, err := New(Config{
		Model:     oracle,
		ModelName: "classifier",
		Messages:  conversations.NewMessagesManager(summarizer, "summarizer", nil),
	})
	require.NoError(t, err)
	return c
}

func TestClassify_Coercion(t *testing.T) {
	tests := []struct {
		raw  string
		want model.AgentLabel
	}{
		{"crm-agent", model.LabelCRMAgent},
		{"  CRM-Agent \n", model.LabelCRMAgent},
		{"unknown", model.LabelUnknown},
		{"crm-agent.", model.LabelUnknown},
		{"crm agent", model.LabelUnknown},
		{"label: crm-agent", model.LabelUnknown},
		{"'crm-agent'", model.LabelUnknown},
		{"", model.LabelUnknown},
		{"sales-agent", model.LabelUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := newClassifier(t, fakes.Text("classifier", tt.raw), fakes.Text("summarizer", "s"))
			got, err := c.Classify(context.Background(), "anything", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EmptyHistoryMakesOneCall(t *testing.T) {
	oracle := fakes.Text("classifier", "unknown")
	summarizer := fakes.Text("summarizer", "should not run")
	c := newClassifier(t, oracle, summarizer)

	got, err := c.Classify(context.Background(), "  ", nil)
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.Equal(t, 1, oracle.CallCount())
	assert.Zero(t, summarizer.CallCount())

	msgs := oracle.Calls()[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "", msgs[1].Content)
}

// lastAgent extracts the previous label the classifier prompt names.
var lastAgent = regexp.MustCompile(`and the (\S+) answered:`)

func echoLastAgent() *fakes.ChatModel {
	return &fakes.ChatModel{
		Name: "echo",
		Respond: func(_ context.Context, input []*schema.Message) (*schema.Message, error) {
			m := lastAgent.FindStringSubmatch(input[0].Content)
			if m == nil {
				return fakes.Reply("unknown"), nil
			}
			return fakes.Reply(m[1]), nil
		},
	}
}

func TestClassify_Stickiness(t *testing.T) {
	for _, prev := range []model.AgentLabel{model.LabelCRMAgent, model.LabelUnknown} {
		t.Run(prev.String(), func(t *testing.T) {
			summarizer := fakes.Text("summarizer", "summary")
			c := newClassifier(t, echoLastAgent(), summarizer)
			history := model.History{
				{User: "first", Assistant: "one", Agent: model.LabelUnknown},
				{User: "list users", Assistant: "- Ali", Agent: prev},
			}

			got, err := c.Classify(context.Background(), "and then?", history)
			require.NoError(t, err)
			assert.Equal(t, prev, got)
			assert.Equal(t, 1, summarizer.CallCount())
		})
	}
}

func TestClassify_Scenarios(t *testing.T) {
	keyword := &fakes.ChatModel{
		Name: "keyword",
		Respond: func(_ context.Context, input []*schema.Message) (*schema.Message, error) {
			if regexp.MustCompile(`(?i)order|user|product|deal`).MatchString(input[1].Content) {
				return fakes.Reply("crm-agent"), nil
			}
			return fakes.Reply("unknown"), nil
		},
	}
	c := newClassifier(t, keyword, fakes.Text("summarizer", "s"))

	got, err := c.Classify(context.Background(), "Track my order #123", nil)
	require.NoError(t, err)
	assert.Equal(t, model.LabelCRMAgent, got)

	got, err = c.Classify(context.Background(), "What's the weather?", nil)
	require.NoError(t, err)
	assert.Equal(t, model.LabelUnknown, got)
}

func TestClassify_OracleFailurePropagates(t *testing.T) {
	t.Run("classification", func(t *testing.T) {
		oracle := &fakes.ChatModel{Name: "classifier", Err: errors.New("boom")}
		c := newClassifier(t, oracle, fakes.Text("summarizer", "s"))
		_, err := c.Classify(context.Background(), "q", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
	})

	t.Run("summary", func(t *testing.T) {
		oracle := fakes.Text("classifier", "crm-agent")
		summarizer := &fakes.ChatModel{Name: "summarizer", Err: context.DeadlineExceeded}
		c := newClassifier(t, oracle, summarizer)
		_, err := c.Classify(context.Background(), "q", model.History{{User: "a", Assistant: "b", Agent: model.LabelUnknown}})
		require.Error(t, err)
		assert.Equal(t, http.StatusGatewayTimeout, errx.StatusOf(err))
		assert.Zero(t, oracle.CallCount())
	})
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Model: fakes.Text("m", "x")})
	assert.Error(t, err)
}
