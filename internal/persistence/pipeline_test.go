package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"facerate-go/internal/gate"
	"facerate-go/internal/identity"
	"facerate-go/internal/models"
	"facerate-go/internal/runner"
	"facerate-go/internal/stimulus"
	"facerate-go/internal/timeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu        sync.Mutex
	trials    []*models.TrialResult
	sessions  []*models.SessionPayload
	failTrial func(n int) bool
	failFinal bool
	calls     int
}

func (f *fakeStore) AppendTrial(_ context.Context, tr *models.TrialResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failTrial != nil && f.failTrial(f.calls) {
		return errors.New("stream unavailable")
	}
	f.trials = append(f.trials, tr)
	return nil
}

func (f *fakeStore) AppendSession(_ context.Context, sp *models.SessionPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFinal {
		return errors.New("aggregate unavailable")
	}
	f.sessions = append(f.sessions, sp)
	return nil
}

func (f *fakeStore) snapshot() ([]*models.TrialResult, []*models.SessionPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.TrialResult(nil), f.trials...), append([]*models.SessionPayload(nil), f.sessions...)
}

func fullRun(t *testing.T, p *Pipeline, sess identity.Session) runner.Outcome {
	t.Helper()
	doc := timeline.Assemble(timeline.NewRand(), stimulus.DefaultCodec(), timeline.Screens{})
	sess.BlockOrder = doc.BlockOrder
	r := runner.New("run", doc, p.Hooks(sess))

	for {
		step, _ := r.Current()
		var resp *runner.Response
		if step.Kind == timeline.KindRating {
			for c := 0; c < runner.Controls; c++ {
				_, _, err := r.Observe(c, gate.EventChange)
				require.NoError(t, err)
			}
			resp = &runner.Response{Ratings: [runner.Controls]int{1, 3, 5, 7}, RTMillis: 1200}
		}
		out, err := r.Advance(resp)
		require.NoError(t, err)
		if out.Done {
			return out
		}
	}
}

func TestPipelineSavesEveryTrialAndOneAggregate(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(zap.NewNop(), 1024, time.Second)
	p := NewPipeline(zap.NewNop(), store, w, "v-test")

	out := fullRun(t, p, identity.Session{ParticipantID: "ABC123"})
	w.Close()

	require.NoError(t, out.FinishErr)
	trials, sessions := store.snapshot()
	want := 2 * stimulus.DefaultCodec().FaceCount * 9

	assert.Len(t, trials, want)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Trials, want)
	assert.Equal(t, "ABC123", sessions[0].ParticipantID)
	assert.Equal(t, "v-test", sessions[0].ClientVersion)
	assert.Len(t, sessions[0].BlockOrder, 2)

	for _, tr := range trials {
		assert.Equal(t, "ABC123", tr.ParticipantID)
		assert.Equal(t, 1, tr.Q1)
		assert.Equal(t, 7, tr.Q4)
		assert.Equal(t, int64(1200), tr.RT)
		assert.NotNil(t, tr.Sex)
	}
}

func TestPipelinePartialFailureDoesNotStopSession(t *testing.T) {
	store := &fakeStore{failTrial: func(n int) bool { return n == 5 }}
	w := NewWriter(zap.NewNop(), 1024, time.Second)
	p := NewPipeline(zap.NewNop(), store, w, "v-test")

	out := fullRun(t, p, identity.Session{ParticipantID: "P5"})
	w.Close()

	require.NoError(t, out.FinishErr)
	trials, sessions := store.snapshot()
	want := 2 * stimulus.DefaultCodec().FaceCount * 9

	assert.Len(t, trials, want-1)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Trials, want)
}

func TestPipelineFinalFailureIsReported(t *testing.T) {
	store := &fakeStore{failFinal: true}
	w := NewWriter(zap.NewNop(), 1024, time.Second)
	p := NewPipeline(zap.NewNop(), store, w, "v-test")

	out := fullRun(t, p, identity.Session{ParticipantID: "P6"})
	w.Close()

	assert.Error(t, out.FinishErr)
	_, sessions := store.snapshot()
	assert.Empty(t, sessions)
}

func TestOnTrialFinishIgnoresNonRatingSteps(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(zap.NewNop(), 8, time.Second)
	p := NewPipeline(zap.NewNop(), store, w, "v")

	for _, kind := range []timeline.Kind{timeline.KindFullscreen, timeline.KindPreload, timeline.KindInstructions} {
		p.OnTrialFinish(identity.Session{ParticipantID: "x"}, runner.Record{Kind: kind})
	}
	w.Close()

	trials, _ := store.snapshot()
	assert.Empty(t, trials)
}

func TestRowFromRecord(t *testing.T) {
	codec := stimulus.DefaultCodec()
	trial := timeline.TrialDefinition{Block: "Male", Image: "stimuli/M.F.3_2.2.png", Meta: codec.Parse("stimuli/M.F.3_2.2.png")}

	row := RowFromRecord(runner.Record{Kind: timeline.KindRating, Trial: &trial, RTMillis: 850, Ratings: []int{2, 4, 6, 1}})

	assert.Equal(t, "Male", row.Block)
	assert.Equal(t, "Male", *row.Sex)
	assert.Equal(t, 3, *row.FaceID)
	assert.Equal(t, "Average", *row.HeightLabel)
	assert.Equal(t, "LessAttractive", *row.AttractLabel)
	assert.Equal(t, int64(850), row.RT)
	assert.Equal(t, []int{2, 4, 6, 1}, []int{row.Q1, row.Q2, row.Q3, row.Q4})
}

func TestRowFromMalformedImageKeepsNulls(t *testing.T) {
	trial := timeline.TrialDefinition{Block: "Male", Image: "broken.png", Meta: stimulus.DefaultCodec().Parse("broken.png")}
	row := RowFromRecord(runner.Record{Kind: timeline.KindRating, Trial: &trial, Ratings: []int{1, 1, 1, 1}})

	body, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"block":"Male","image":"broken.png","sex":null,"face_id":null,"height_label":null,"attract_label":null,"rt":0,"Q1":1,"Q2":1,"Q3":1,"Q4":1}`, string(body))
}

func TestWriterDropsWhenClosed(t *testing.T) {
	w := NewWriter(zap.NewNop(), 1, time.Second)
	w.Close()
	assert.False(t, w.Go(func(context.Context) {}))
}

func TestWriterDoesNotBlockCaller(t *testing.T) {
	w := NewWriter(zap.NewNop(), 1, time.Second)
	release := make(chan struct{})

	require.True(t, w.Go(func(context.Context) { <-release }))
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			w.Go(func(context.Context) {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the worker was busy")
	}
	close(release)
	w.Close()
}

func TestWriterAppliesTimeout(t *testing.T) {
	w := NewWriter(zap.NewNop(), 1, 20*time.Millisecond)
	errc := make(chan error, 1)
	w.Go(func(ctx context.Context) {
		<-ctx.Done()
		errc <- ctx.Err()
	})
	w.Close()
	assert.ErrorIs(t, <-errc, context.DeadlineExceeded)
}

func TestStreamValues(t *testing.T) {
	values, err := streamValues("P1", models.TrialResult{ParticipantID: "P1", TrialRow: models.TrialRow{Image: "a.png", Q1: 3}})
	require.NoError(t, err)

	assert.Equal(t, "P1", values["participant_id"])
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &decoded))
	assert.Equal(t, "a.png", decoded["image"])
	assert.Equal(t, float64(3), decoded["Q1"])
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &fakeStore{}
	bad := &fakeStore{failTrial: func(int) bool { return true }, failFinal: true}
	m := Multi{bad, ok}

	assert.Error(t, m.AppendTrial(context.Background(), &models.TrialResult{}))
	assert.Error(t, m.AppendSession(context.Background(), &models.SessionPayload{}))

	trials, sessions := ok.snapshot()
	assert.Len(t, trials, 1)
	assert.Len(t, sessions, 1)
}

func TestMirrorSwallowsErrors(t *testing.T) {
	bad := &fakeStore{failTrial: func(int) bool { return true }, failFinal: true}
	m := Multi{&fakeStore{}, Mirror{Store: bad, Log: zap.NewNop()}}

	assert.NoError(t, m.AppendTrial(context.Background(), &models.TrialResult{}))
	assert.NoError(t, m.AppendSession(context.Background(), &models.SessionPayload{}))
}
