package cli

import (
	"context"
	"errors"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/db"
	"github.com/ishaan812/fixmine/internal/pipeline"
)

// recorder writes stage outcomes to the run ledger. The ledger is for
// inspection only, so every failure here is logged and swallowed.
type recorder struct {
	ledger *db.Ledger
	runID  string
}

func openRecorder(ctx context.Context, command string) *recorder {
	ledger, err := db.Open(artifact.PathsFor(cfg.Paths.DataDir).Ledger)
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, continuing without it")
		return &recorder{}
	}

	runID, err := ledger.StartRun(ctx, command, cfg.Paths.DataDir)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record run")
		ledger.Close()
		return &recorder{}
	}
	return &recorder{ledger: ledger, runID: runID}
}

// run executes one stage and records its outcome.
func (r *recorder) run(ctx context.Context, stage pipeline.Stage) (pipeline.Result, error) {
	var stageID string
	if r.ledger != nil {
		id, err := r.ledger.StartStage(ctx, r.runID, stage.Name)
		if err != nil {
			logger.Warn().Err(err).Str("stage", stage.Name).Msg("failed to record stage start")
		}
		stageID = id
	}

	res, err := stage.Run(ctx)

	if stageID != "" {
		st := db.StatusOK
		switch {
		case errors.Is(err, context.Canceled):
			st = db.StatusCancelled
		case err != nil:
			st = db.StatusFailed
		}
		// the stage context may already be cancelled
		ferr := r.ledger.FinishStage(context.Background(), stageID, db.StageResult{
			Status:  st,
			Input:   res.Input,
			Output:  res.Output,
			Skipped: res.Skipped,
			Err:     err,
		})
		if ferr != nil {
			logger.Warn().Err(ferr).Str("stage", stage.Name).Msg("failed to record stage result")
		}
	}

	return res, err
}

func (r *recorder) Close() {
	if r.ledger != nil {
		r.ledger.Close()
	}
}
