package engineobs

import (
	"context"
	"time"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/trace"
	"raven-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Run(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting decision cycle")

	result, err := oe.engine.Run(ctx)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Decision cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Decision cycle finished",
		"status", string(result.Status),
		"trades_executed", result.TradesExecuted,
		"overall_sentiment", result.OverallSentiment,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
