package persistence

import (
	"context"
	"fmt"

	"facerate-go/internal/identity"
	"facerate-go/internal/models"
	"facerate-go/internal/runner"
	"facerate-go/internal/timeline"

	"go.uber.org/zap"
)

// Pipeline turns finished runner steps into stored results.
type Pipeline struct {
	log           *zap.Logger
	store         Store
	writer        *Writer
	clientVersion string
}

func NewPipeline(log *zap.Logger, store Store, writer *Writer, clientVersion string) *Pipeline {
	return &Pipeline{log: log, store: store, writer: writer, clientVersion: clientVersion}
}

// Hooks binds the pipeline to one participant's session for use by a run.
func (p *Pipeline) Hooks(sess identity.Session) runner.Hooks {
	return runner.Hooks{
		OnStepFinish: func(rec runner.Record) { p.OnTrialFinish(sess, rec) },
		OnFinish: func(data *runner.Data) error {
			return p.OnSessionFinish(context.Background(), sess, data)
		},
	}
}

// OnTrialFinish queues the streaming write of a rating trial and returns
// immediately. Other step kinds are ignored. A failed write is logged and
// not retried.
func (p *Pipeline) OnTrialFinish(sess identity.Session, rec runner.Record) {
	if rec.Kind != timeline.KindRating {
		return
	}
	result := &models.TrialResult{
		ParticipantID: sess.ParticipantID,
		TrialRow:      RowFromRecord(rec),
	}
	p.writer.Go(func(ctx context.Context) {
		if err := p.store.AppendTrial(ctx, result); err != nil {
			p.log.Warn("Partial save failed",
				zap.String("participant_id", sess.ParticipantID),
				zap.String("image", result.Image),
				zap.Error(err),
			)
		}
	})
}

// OnSessionFinish writes the aggregate record for a completed run and waits
// for the store. The error is logged and returned; nothing is retried.
func (p *Pipeline) OnSessionFinish(ctx context.Context, sess identity.Session, data *runner.Data) error {
	records := data.Filter(timeline.KindRating)
	rows := make([]models.TrialRow, len(records))
	for i, rec := range records {
		rows[i] = RowFromRecord(rec)
	}

	payload := &models.SessionPayload{
		ParticipantID: sess.ParticipantID,
		Trials:        rows,
		BlockOrder:    sess.BlockOrder,
		ClientVersion: p.clientVersion,
	}
	if err := p.store.AppendSession(ctx, payload); err != nil {
		p.log.Error("Final save failed",
			zap.String("participant_id", sess.ParticipantID),
			zap.Int("trials", len(rows)),
			zap.Error(err),
		)
		return fmt.Errorf("final save: %w", err)
	}

	p.log.Info("Session saved",
		zap.String("participant_id", sess.ParticipantID),
		zap.Int("trials", len(rows)),
	)
	return nil
}

// RowFromRecord flattens a rating record into the stored row shape.
func RowFromRecord(rec runner.Record) models.TrialRow {
	row := models.TrialRow{RT: rec.RTMillis}
	if rec.Trial != nil {
		row.Block = rec.Trial.Block
		row.Image = rec.Trial.Image
		row.Sex = rec.Trial.Meta.Sex
		row.FaceID = rec.Trial.Meta.FaceID
		row.HeightLabel = rec.Trial.Meta.HeightLabel
		row.AttractLabel = rec.Trial.Meta.AttractLabel
	}
	if len(rec.Ratings) == runner.Controls {
		row.Q1, row.Q2, row.Q3, row.Q4 = rec.Ratings[0], rec.Ratings[1], rec.Ratings[2], rec.Ratings[3]
	}
	return row
}
