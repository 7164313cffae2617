package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the routing graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - Read and written only inside Eino state handlers or compose.ProcessState,
//     which Eino serializes, so no mutex is needed.
//   - Question and History are a snapshot taken when the pass starts. Nodes
//     never write the in-progress turn into History; the finalizers build
//     the appended history for the result instead.
type AppState struct {
	Question string
	History  History
	Label    AgentLabel

	Messages             []*schema.Message // crm-agent model/tool transcript, mutated only in handlers
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesizes tool_call_id when the provider omits one

	// Accumulated total LLM cost (USD) across model invocations for this pass
	TotalCostUSD float64
}

// RoutingInput is the graph input: the question and the history as it was
// before this pass.
type RoutingInput struct {
	Question string  `json:"question"`
	History  History `json:"history"`
}

// Classification is the classifier node output consumed by the label branch.
type Classification struct {
	Question string
	History  History
	Label    AgentLabel
}

// RoutingResult is the graph output.
type RoutingResult struct {
	Label   AgentLabel `json:"agent"`
	Answer  string     `json:"answer"`
	History History    `json:"history"`
	CostUSD float64    `json:"cost_usd"`
}

// QueryInput represents a session-scoped question.
type QueryInput struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// QueryOutput is returned by the session-aware runner.
type QueryOutput struct {
	SessionID string     `json:"session_id"`
	Agent     AgentLabel `json:"agent"`
	Answer    string     `json:"response"`
	History   History    `json:"history"`
}
