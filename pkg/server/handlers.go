package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"arbiter-hq/arbiter/pkg/pdp"
	"arbiter-hq/arbiter/pkg/policy/compiler"
	"arbiter-hq/arbiter/pkg/policy/manager"
)

// errorResponse is the JSON body returned on request failure.
type errorResponse struct {
	Error string `json:"error"`
}

// handleDecision serves POST /v1/decisions.
func (s *Server) handleDecision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)

		var req pdp.Request
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		decision, err := s.pdp.Decide(r.Context(), req)
		if err != nil {
			status, msg := classifyError(err)
			s.logger.WarnContext(r.Context(), "Decision request failed",
				"policy_set", req.PolicySet,
				"status", status,
				"error", err,
			)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, decision)
	}
}

// handlePolicySets serves GET /v1/policysets.
func (s *Server) handlePolicySets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"policy_sets": s.pdp.PolicySets(),
		})
	}
}

// handleHealthz serves GET /healthz. The decision point is healthy once it
// can serve decisions, even with zero policy sets loaded.
func (s *Server) handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"policy_sets": len(s.pdp.PolicySets()),
		})
	}
}

// classifyError maps decision errors to HTTP status codes.
func classifyError(err error) (int, string) {
	var badReq *pdp.BadRequestError
	if errors.As(err, &badReq) {
		return http.StatusBadRequest, badReq.Error()
	}
	var notFound *manager.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, notFound.Error()
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return http.StatusUnprocessableEntity, compileErr.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
