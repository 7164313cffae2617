package graph

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/crm-chatbot-api/server/internal/agent/graph/conversations"
	"github.com/crm-chatbot-api/server/internal/agent/graph/observers"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/metrics"
)

// Runner executes one routing pass for a session.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (model.QueryOutput, error)
}

type graphRunner struct {
	runnable compose.Runnable[model.RoutingInput, model.RoutingResult]
	sessions model.SessionRepository
	locks    *conversations.SessionLocks
}

// NewRunner wraps a compiled graph with session load/save. Passes on the
// same session id are serialised within this process.
func NewRunner(runnable compose.Runnable[model.RoutingInput, model.RoutingResult], sessions model.SessionRepository) Runner {
	return &graphRunner{
		runnable: runnable,
		sessions: sessions,
		locks:    conversations.NewSessionLocks(),
	}
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (model.QueryOutput, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock, err := r.locks.Lock(ctx, sessionID)
	if err != nil {
		return model.QueryOutput{}, err
	}
	defer unlock()

	history, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return model.QueryOutput{}, err
	}

	start := time.Now()
	out, err := r.runnable.Invoke(ctx, model.RoutingInput{
		Question: in.Question,
		History:  history,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Routing pass failed")
		return model.QueryOutput{}, err
	}
	elapsed := time.Since(start)
	metrics.ObservePass(out.Label.String(), elapsed)

	if err := r.sessions.Save(ctx, sessionID, out.History); err != nil {
		return model.QueryOutput{}, err
	}

	logx.Info().
		Str("session_id", sessionID).
		Str("agent", out.Label.String()).
		Int("turns", len(out.History)).
		Dur("elapsed", elapsed).
		Float64("cost_usd", out.CostUSD).
		Msg("Routing pass completed")

	return model.QueryOutput{
		SessionID: sessionID,
		Agent:     out.Label,
		Answer:    out.Answer,
		History:   out.History,
	}, nil
}
