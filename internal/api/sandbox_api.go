package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Kill Switch (/sandbox/kill-switch) ─────────────────────────────────────

func (s *Server) handleKillSwitchStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ks.Status()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, killSwitchPayload(st))
}

type killSwitchRequest struct {
	Action string `json:"action"` // "activate" or "deactivate"
}

func (s *Server) handleKillSwitchAction(w http.ResponseWriter, r *http.Request) {
	var req killSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	actor := r.Header.Get("X-Admin-Actor")
	if actor == "" {
		actor = "admin"
	}

	var st domain.KillSwitchState
	var msg string
	var err error
	switch req.Action {
	case "activate":
		st, err = s.ks.Activate(r.Context(), actor)
		msg = "kill switch activated — all new battle admissions halted"
	case "deactivate":
		st, err = s.ks.Deactivate(r.Context(), actor)
		msg = "kill switch deactivated — training admissions resume"
	default:
		writeError(w, http.StatusBadRequest, `action must be "activate" or "deactivate"`)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := killSwitchPayload(st)
	resp["success"] = true
	resp["message"] = msg
	writeJSON(w, http.StatusOK, resp)
}

func killSwitchPayload(st domain.KillSwitchState) map[string]interface{} {
	payload := map[string]interface{}{
		"active": st.Active,
	}
	if !st.ActivatedAt.IsZero() {
		payload["activatedAt"] = st.ActivatedAt.UTC().Format(time.RFC3339)
	} else {
		payload["activatedAt"] = nil
	}
	return payload
}

// ─── Scenario Injection (/sandbox/inject-scenario, /sandbox/scenario-status) ─

type injectScenarioRequest struct {
	Objection     string `json:"objection"`
	TotalSessions int    `json:"totalSessions"`
}

func (s *Server) handleInjectScenario(w http.ResponseWriter, r *http.Request) {
	var req injectScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Objection == "" {
		writeError(w, http.StatusBadRequest, "objection is required")
		return
	}
	if req.TotalSessions <= 0 {
		writeError(w, http.StatusBadRequest, "totalSessions must be positive")
		return
	}

	sc, err := s.injector.InjectAndRun(r.Context(), req.Objection, req.TotalSessions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":  true,
		"scenario": sc,
	})
}

type resumeScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// handleResumeScenario restarts a scenario whose fan-out fell short —
// units lost to failures or admission refusals leave it running with
// outstanding sessions, and only a resume can finish it.
func (s *Server) handleResumeScenario(w http.ResponseWriter, r *http.Request) {
	var req resumeScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "scenarioId is required")
		return
	}

	sc, err := s.injector.Resume(req.ScenarioID)
	switch {
	case errors.Is(err, domain.ErrScenarioNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrScenarioCompleted):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":  true,
		"scenario": sc,
	})
}

func (s *Server) handleScenarioStatus(w http.ResponseWriter, r *http.Request) {
	scenarioID := r.URL.Query().Get("scenarioId")
	if scenarioID == "" {
		writeError(w, http.StatusBadRequest, "scenarioId query parameter is required")
		return
	}

	sc, breakthroughs, err := s.injector.Status(scenarioID)
	if errors.Is(err, domain.ErrScenarioNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if breakthroughs == nil {
		breakthroughs = []domain.ScenarioBreakthrough{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario":      sc,
		"breakthroughs": breakthroughs,
	})
}

// ─── Tactic Promotion (/sandbox/promote-tactic) ─────────────────────────────

type promoteTacticRequest struct {
	TacticID string `json:"tacticId,omitempty"`
	BattleID string `json:"battleId,omitempty"`
}

func (s *Server) handlePromoteTactic(w http.ResponseWriter, r *http.Request) {
	var req promoteTacticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TacticID == "" && req.BattleID == "" {
		writeError(w, http.StatusBadRequest, "either tacticId or battleId is required")
		return
	}

	result, err := s.promoter.Promote(r.Context(), req.TacticID, req.BattleID)
	switch {
	case errors.Is(err, domain.ErrTacticNotFound), errors.Is(err, domain.ErrBattleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrNoWinningRebuttal):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": result.Promoted,
		"message": result.Message,
	})
}

// ─── Budget (/sandbox/budget) ───────────────────────────────────────────────

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	c, err := s.governor.Classify()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}
