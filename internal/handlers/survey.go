package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"facerate-go/internal/gate"
	"facerate-go/internal/identity"
	"facerate-go/internal/models"
	"facerate-go/internal/persistence"
	"facerate-go/internal/runner"
	"facerate-go/internal/stimulus"
	"facerate-go/internal/timeline"
	"facerate-go/internal/utils"
	"facerate-go/internal/views"

	"github.com/a-h/templ"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session keys shared with the router middleware.
const (
	RunIDKey           = "run_id"
	ParticipantIDKey   = "participant_id"
	CredentialIDKey    = "credential_id"
	CredentialTokenKey = "credential_token"
	RunContextKey      = "run"
)

// Authenticator issues the anonymous credential a session writes under.
type Authenticator interface {
	SignInAnonymously(ctx context.Context, participantID string) (*models.Participant, string, error)
}

// Redirect returns the post-survey redirect target and delay. It is read at
// the end of every session so configuration reloads apply immediately.
type Redirect func() (url string, delay time.Duration)

type SurveyHandler struct {
	log       *zap.Logger
	Survey    *models.Survey
	codec     stimulus.Codec
	registry  *runner.Registry
	pipeline  *persistence.Pipeline
	auth      Authenticator
	redirect  Redirect
	AssetBase string
}

func NewSurveyHandler(log *zap.Logger, survey *models.Survey, codec stimulus.Codec, registry *runner.Registry, pipeline *persistence.Pipeline, auth Authenticator, redirect Redirect) *SurveyHandler {
	return &SurveyHandler{
		log:       log,
		Survey:    survey,
		codec:     codec,
		registry:  registry,
		pipeline:  pipeline,
		auth:      auth,
		redirect:  redirect,
		AssetBase: "/assets",
	}
}

// Start resumes the participant's run or creates a new one, then renders the
// current step as a full page. A run is resumed only when the request names no
// participant or the same one the run was started for.
func (h *SurveyHandler) Start(c *gin.Context) {
	session := sessions.Default(c)
	queryID := identity.QueryParticipantID(c.Request.URL.Query())
	if queryID != "" && !utils.IsValidParticipantID(queryID) {
		h.log.Warn("Rejected participant id from query, generating one", zap.Int("length", len(queryID)))
		queryID = ""
	}
	if runID, ok := session.Get(RunIDKey).(string); ok {
		if run, found := h.registry.Get(runID); found {
			sessionID, _ := session.Get(ParticipantIDKey).(string)
			if queryID == "" || queryID == sessionID {
				step, index := run.Current()
				h.renderPage(c, run, step, index, "", 0)
				return
			}
			h.log.Info("Entry parameters name a new participant, replacing run",
				zap.String("run_id", runID), zap.String("previous_participant_id", sessionID))
			h.registry.Delete(runID)
		}
	}

	run, err := h.newRun(c, queryID)
	if err != nil {
		h.log.Error("Failed to start survey session", zap.Error(err))
		h.renderMessage(c, http.StatusInternalServerError, "Could not start the survey. Please reload the page.")
		return
	}
	step, index := run.Current()
	h.renderPage(c, run, step, index, "", 0)
}

func (h *SurveyHandler) newRun(c *gin.Context, pid string) (*runner.Run, error) {
	session := sessions.Default(c)

	if pid == "" {
		pid = identity.GenerateID()
	}
	sess := identity.Session{ParticipantID: pid}

	cred, token, err := h.auth.SignInAnonymously(c.Request.Context(), pid)
	if err != nil {
		h.log.Warn("Anonymous sign-in failed, continuing unauthenticated",
			zap.String("participant_id", pid), zap.Error(err))
	} else {
		sess.CredentialID = cred.ID
		sess.Authenticated = true
		session.Set(CredentialIDKey, cred.ID)
		session.Set(CredentialTokenKey, token)
	}

	doc := timeline.Assemble(timeline.NewRand(), h.codec, h.Survey.Screens())
	sess.BlockOrder = doc.BlockOrder

	run := runner.New(utils.NewRunID(), doc, h.pipeline.Hooks(sess))
	h.registry.Put(run)

	session.Set(RunIDKey, run.ID)
	session.Set(ParticipantIDKey, pid)
	if err := session.Save(); err != nil {
		h.registry.Delete(run.ID)
		return nil, err
	}

	h.log.Info("Survey session started",
		zap.String("participant_id", pid),
		zap.String("run_id", run.ID),
		zap.Strings("block_order", doc.BlockOrder),
		zap.Bool("authenticated", sess.Authenticated),
	)
	return run, nil
}

// Next finishes a non-rating step.
func (h *SurveyHandler) Next(c *gin.Context) {
	run := c.MustGet(RunContextKey).(*runner.Run)
	if step, _ := run.Current(); step.Kind == timeline.KindRating {
		c.String(http.StatusBadRequest, "This step needs a rating response.")
		return
	}
	outcome, err := run.Advance(nil)
	h.renderOutcome(c, run, outcome, err)
}

// Respond submits the four ratings of the current trial.
func (h *SurveyHandler) Respond(c *gin.Context) {
	run := c.MustGet(RunContextKey).(*runner.Run)
	if step, _ := run.Current(); step.Kind != timeline.KindRating {
		c.String(http.StatusConflict, "This step does not take a rating response.")
		return
	}

	resp := &runner.Response{RTMillis: utils.ParseReactionTime(c.PostForm("rt"))}
	for i := range resp.Ratings {
		v, err := utils.ParseRating(c.PostForm("q"+strconv.Itoa(i+1)), runner.MinRating, runner.MaxRating)
		if err != nil {
			c.String(http.StatusBadRequest, "Invalid rating: %v", err)
			return
		}
		resp.Ratings[i] = v
	}

	// The client repeats the controls it saw touched; replaying them covers
	// interaction reports that never reached the server.
	touched, err := utils.ParseControls(c.PostForm("touched"), runner.Controls)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid touched controls: %v", err)
		return
	}
	for _, control := range touched {
		if _, _, err := run.Observe(control, gate.EventChange); err != nil {
			h.renderOutcome(c, run, runner.Outcome{}, err)
			return
		}
	}

	outcome, err := run.Advance(resp)
	h.renderOutcome(c, run, outcome, err)
}

// Interaction records a touch on one slider of the current trial.
func (h *SurveyHandler) Interaction(c *gin.Context) {
	run := c.MustGet(RunContextKey).(*runner.Run)

	control, err := strconv.Atoi(c.PostForm("control"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid control"})
		return
	}
	state, touched, err := run.Observe(control, gate.Event(c.PostForm("event")))
	switch {
	case errors.Is(err, runner.ErrNotATrial):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gate.ErrUnknownControl), errors.Is(err, gate.ErrUnknownEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("Failed to record interaction", zap.String("run_id", run.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state.String(), "touched": touched})
}

// Manifest lists every image URL of the run for preloading.
func (h *SurveyHandler) Manifest(c *gin.Context) {
	run := c.MustGet(RunContextKey).(*runner.Run)
	images := run.Doc.Preload()
	urls := make([]string, len(images))
	view := views.StepView{AssetBase: h.AssetBase}
	for i, p := range images {
		urls[i] = view.ImageURL(p)
	}
	c.JSON(http.StatusOK, gin.H{"block_order": run.Doc.BlockOrder, "images": urls})
}

func (h *SurveyHandler) renderOutcome(c *gin.Context, run *runner.Run, outcome runner.Outcome, err error) {
	switch {
	case errors.Is(err, runner.ErrGateLocked):
		c.String(http.StatusConflict, h.Survey.GateInstruction)
		return
	case errors.Is(err, runner.ErrInvalidResponse):
		c.String(http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, runner.ErrNotATrial):
		c.String(http.StatusConflict, err.Error())
		return
	case errors.Is(err, runner.ErrFinished):
		step, index := run.Current()
		h.renderStep(c, run, step, index, "", 0)
		return
	case err != nil:
		h.log.Error("Failed to advance run", zap.String("run_id", run.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not continue the survey")
		return
	}

	var redirectURL string
	var delay time.Duration
	if outcome.Done && outcome.FinishErr == nil && h.redirect != nil {
		redirectURL, delay = h.redirect()
	}
	h.renderStep(c, run, outcome.Step, outcome.Index, redirectURL, delay)
}

func (h *SurveyHandler) stepView(run *runner.Run, step timeline.Step, index int, redirectURL string, delay time.Duration) views.StepView {
	number, count := 0, 0
	for i, s := range run.Doc.Steps {
		if s.Kind != timeline.KindRating {
			continue
		}
		count++
		if i <= index {
			number = count
		}
	}
	return views.StepView{
		Step:            step,
		TrialNumber:     number,
		TrialCount:      count,
		Survey:          h.Survey,
		AssetBase:       h.AssetBase,
		RedirectURL:     redirectURL,
		RedirectDelayMs: delay.Milliseconds(),
	}
}

func (h *SurveyHandler) renderStep(c *gin.Context, run *runner.Run, step timeline.Step, index int, redirectURL string, delay time.Duration) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	component := views.Step(h.stepView(run, step, index, redirectURL, delay))
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("Error rendering step", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (h *SurveyHandler) renderMessage(c *gin.Context, status int, text string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	component := views.Message(text)
	err := views.Layout(h.Survey.Title, c.GetString("csrf_token"), c.GetString("csp_nonce")).Render(templ.WithChildren(c.Request.Context(), component), c.Writer)
	if err != nil {
		h.log.Error("Error rendering message", zap.Error(err))
	}
}

func (h *SurveyHandler) renderPage(c *gin.Context, run *runner.Run, step timeline.Step, index int, redirectURL string, delay time.Duration) {
	csrfToken := c.GetString("csrf_token")
	cspNonce := c.GetString("csp_nonce")

	component := views.Step(h.stepView(run, step, index, redirectURL, delay))
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := views.Layout(h.Survey.Title, csrfToken, cspNonce).Render(templ.WithChildren(c.Request.Context(), component), c.Writer)
	if err != nil {
		h.log.Error("Error rendering page", zap.String("run_id", run.ID), zap.Error(err))
	}
}
