package httpapi

import (
	"fmt"
	"net/http"
)

type statusCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"` // ok|warn|error
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

type statusResponse struct {
	LLMProvider   string        `json:"llm_provider"`
	EvaluatorMode string        `json:"evaluator_mode"`
	StoreBackend  string        `json:"store_backend"`
	Personas      int           `json:"personas"`
	Companions    int           `json:"companions"`
	Checks        []statusCheck `json:"checks"`
}

// handleStatus reports how the service is wired and what an operator may
// want to change before real use.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()
	resp := statusResponse{
		LLMProvider:   s.providerName,
		EvaluatorMode: s.cfg.EvaluatorMode,
		StoreBackend:  s.storeBackend,
		Personas:      len(cat.Personas()),
		Companions:    len(cat.CompanionListings()),
	}

	switch s.providerName {
	case "mock", "":
		resp.Checks = append(resp.Checks, statusCheck{
			ID:     "llm_provider",
			Status: "warn",
			Label:  "Language model",
			Detail: "offline mock replies",
			Fix:    "Set LLM_API_KEY (and LLM_MODEL) to use a real provider.",
		})
	default:
		resp.Checks = append(resp.Checks, statusCheck{
			ID:     "llm_provider",
			Status: "ok",
			Label:  "Language model",
			Detail: s.providerName,
		})
	}

	if s.cfg.EvaluatorMode == "model" && (s.providerName == "mock" || s.providerName == "") {
		resp.Checks = append(resp.Checks, statusCheck{
			ID:     "evaluator",
			Status: "warn",
			Label:  "Response evaluator",
			Detail: "the mock provider gives no verdicts, so every turn is scored by the heuristic",
			Fix:    "Configure a provider to enable model scoring.",
		})
	} else {
		resp.Checks = append(resp.Checks, statusCheck{
			ID:     "evaluator",
			Status: "ok",
			Label:  "Response evaluator",
			Detail: s.cfg.EvaluatorMode,
		})
	}

	storeCheck := statusCheck{ID: "transcript_store", Label: "Transcript persistence", Detail: s.storeBackend, Status: "ok"}
	if err := s.store.Ping(r.Context()); err != nil {
		storeCheck.Status = "error"
		storeCheck.Detail = fmt.Sprintf("%s: %v", s.storeBackend, err)
	} else if s.storeBackend == "memory" {
		storeCheck.Status = "warn"
		storeCheck.Detail = "in-memory only"
		storeCheck.Fix = "Set DATABASE_URL or REDIS_URL to keep transcripts across restarts."
	}
	resp.Checks = append(resp.Checks, storeCheck)

	respondJSON(w, http.StatusOK, resp)
}
