package trailhunt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/trailhunt-games/trailhunt/internal/logging"
	"github.com/trailhunt-games/trailhunt/internal/server"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/match"
)

// routes maps every operator action 1:1 onto a state machine operation.
func (m *manager) routes(ctx context.Context) *httprouter.Router {
	mux := httprouter.New()

	mux.Handler(http.MethodGet, "/health", server.HandleHealth(ctx))

	mux.GET("/api/state", m.handleState)

	mux.POST("/api/players", m.handleAddPlayer)
	mux.DELETE("/api/players/:id", m.handleRemovePlayer)
	mux.PUT("/api/questions", m.handleSetQuestions)
	mux.POST("/api/questions/generate", m.handleGenerate(ctx))
	mux.PUT("/api/settings/time-limit", m.handleTimeLimit)
	mux.POST("/api/settings/mute", m.handleToggleMute)

	mux.POST("/api/game/start", m.handleStart)
	mux.POST("/api/game/reveal", m.handleReveal)
	mux.POST("/api/game/judge", m.handleJudge)
	mux.POST("/api/game/card", m.handleResolveCard)
	mux.POST("/api/game/advance", m.handleAdvance)
	mux.POST("/api/game/finish", m.handleFinish)
	mux.POST("/api/game/quit", m.handleQuit)
	mux.POST("/api/game/reset", m.handleReset)

	mux.GET("/ws", m.handleWS(ctx))

	return mux
}

func (m *manager) handleState(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, m.session.RenderView())
}

func (m *manager) handleAddPlayer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	player, err := m.session.AddPlayer(req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, player)
}

func (m *manager) handleRemovePlayer(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	if err := m.session.RemovePlayer(params.ByName("id")); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleSetQuestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := m.session.SetQuestionsText(req.Text); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleGenerate(ctx context.Context) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		logger := logging.FromContext(ctx).Named("trailhunt.generate")

		var req struct {
			Topic string `json:"topic"`
			Count int    `json:"count"`
		}
		if !decode(w, r, &req) {
			return
		}

		generated, err := m.source.Generate(r.Context(), req.Topic, req.Count)
		if err != nil {
			// the current question list stays untouched
			logger.Errorf("generate questions: %v", err)
			writeJSON(w, http.StatusBadGateway, errBody("question generation failed, try again later"))
			return
		}

		if err := m.session.ApplyGeneratedQuestions(req.Topic, generated); err != nil {
			writeErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"questions": generated})
	}
}

func (m *manager) handleTimeLimit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := m.session.SetTimeLimit(req.Seconds); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleToggleMute(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]bool{"muted": m.session.ToggleMute()})
}

func (m *manager) handleStart(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := m.session.Start(); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleReveal(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := m.session.Reveal(); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleJudge(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		PlayerIndex int    `json:"playerIndex"`
		Outcome     string `json:"outcome"`
	}
	if !decode(w, r, &req) {
		return
	}

	outcome, err := match.ParseOutcome(req.Outcome)
	if err != nil {
		writeErr(w, err)
		return
	}

	cards, err := m.session.Judge(req.PlayerIndex, outcome)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

func (m *manager) handleResolveCard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		CardID string `json:"cardId"`
	}
	if !decode(w, r, &req) {
		return
	}

	card, err := m.session.Resolve(req.CardID)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (m *manager) handleAdvance(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := m.session.Advance(); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleFinish(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := m.session.Finish(); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleQuit(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := m.session.Quit(); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleReset(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	m.clearSaved()
	m.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (m *manager) handleWS(ctx context.Context) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		view := m.session.RenderView()
		m.hub.handle(ctx, w, r, Event{Type: "state", View: &view})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("malformed request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeErr maps state machine errors onto HTTP statuses: validation
// problems are unprocessable, wrong-moment operations conflict.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, match.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err.Error()))
	case errors.Is(err, match.ErrPlayerNotFound), errors.Is(err, match.ErrCardNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err.Error()))
	case errors.Is(err, match.ErrStage), errors.Is(err, match.ErrPhase),
		errors.Is(err, match.ErrAlreadyJudged), errors.Is(err, match.ErrDrawOpen),
		errors.Is(err, match.ErrNoActiveDraw):
		writeJSON(w, http.StatusConflict, errBody(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
	}
}
