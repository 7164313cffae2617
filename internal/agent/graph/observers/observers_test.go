package observers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage(" first "),
		schema.AssistantMessage("a", nil),
		nil,
		schema.UserMessage(" list users \n"),
		schema.ToolMessage("{}", "c1"),
	}
	assert.Equal(t, "list users", lastUserContent(msgs))
	assert.Empty(t, lastUserContent([]*schema.Message{schema.SystemMessage("only")}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", maxLoggedToolOutput+10)
	assert.Equal(t, maxLoggedToolOutput+3, len(truncate(long, maxLoggedToolOutput)))

	// each Persian letter is two bytes
	persian := "سلام دنیا"
	for n := 1; n < len(persian); n++ {
		got := truncate(persian, n)
		assert.True(t, utf8.ValidString(got), "n=%d", n)
		assert.LessOrEqual(t, len(got), n+3)
		assert.True(t, strings.HasPrefix(persian, strings.TrimSuffix(got, "...")))
	}
}

func TestNewAllCallbacks(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks())
}
