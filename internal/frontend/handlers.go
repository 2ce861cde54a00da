package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fricosched/frico/internal/model"
)

// exceptionResponse formats a front-end failure the way the original's
// `except Exception as e` branch did: always HTTP 200, the failure folded
// into the message, per spec.md §7.
func exceptionResponse(detail interface{}) createResponse {
	return createResponse{Message: fmt.Sprintf("Exception occured: %v", detail)}
}

const mebibyte = 1024 * 1024

// createRequest is the JSON body spec.md §6.1 defines for POST /create.
type createRequest struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Color    string `json:"color"`
	ExecTime int64  `json:"execTime"`
	CPU      int64  `json:"cpu"`
	Memory   int64  `json:"memory"`
}

type createResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleCreate(submitTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusOK, exceptionResponse(err))
			return
		}

		if req.Name == "" {
			writeJSON(w, http.StatusOK, exceptionResponse("name is required"))
			return
		}
		priority, err := model.ParsePriority(req.Priority)
		if err != nil {
			writeJSON(w, http.StatusOK, exceptionResponse(err))
			return
		}
		if req.Color == "" {
			writeJSON(w, http.StatusOK, exceptionResponse("color is required"))
			return
		}

		task := model.Task{
			ID:                req.Name,
			Name:              req.Name,
			CPURequirement:    req.CPU,
			MemoryRequirement: req.Memory * mebibyte,
			Priority:          priority,
			Color:             req.Color,
			ExecTime:          req.ExecTime,
			ArrivalTime:       time.Now(),
		}

		ctx := r.Context()
		var cancel context.CancelFunc
		if submitTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, submitTimeout)
			defer cancel()
		}

		result, err := s.pipeline.Submit(ctx, task)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				writeJSON(w, http.StatusGatewayTimeout, createResponse{Message: "timed out waiting for placement decision"})
				return
			}
			writeJSON(w, http.StatusOK, exceptionResponse(err))
			return
		}

		if !result.Admitted {
			writeJSON(w, http.StatusOK, createResponse{Message: fmt.Sprintf("task %s could not be placed: cluster has insufficient color-compatible capacity", req.Name)})
			return
		}

		writeJSON(w, http.StatusOK, createResponse{
			Message: fmt.Sprintf("task %s placed on node %s (%d task(s) displaced)", req.Name, result.Node, len(result.Displacements)),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
