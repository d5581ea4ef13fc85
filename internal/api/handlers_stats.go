package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llmStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"extract_model": s.cfg.ExtractModel,
		"caption_model": s.cfg.CaptionModel,
		"queue_depth":   s.orchestrator.QueueDepth(),
		"stats":         s.llmStats.Snapshot(),
	})
}
