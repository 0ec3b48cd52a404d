// Package v1 implements the HTTP transport for the import messages.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vmunix/fixturesync/internal/messages"
)

// maxBody bounds request bodies; a season of fixtures is a few KiB.
const maxBody = 4 << 20

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
}

// New creates a new v1 API server.
func New(deps ServerDeps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	return &Server{deps: deps}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Messages
	mux.HandleFunc("POST /api/v1/messages", s.postMessage)
	mux.HandleFunc("POST /api/v1/import", s.startImport)
	mux.HandleFunc("GET /api/v1/status", s.getStatus)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/v1/events/stream", s.requireBus(s.streamEvents))
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// writeDispatchError maps dispatcher errors to status codes.
func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messages.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TYPE", err.Error())
	case errors.Is(err, messages.ErrBadPayload):
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "DISPATCH_ERROR", err.Error())
	}
}

// replyStatus is 202 for accepted imports, 409 for refused ones, 200 otherwise.
func replyStatus(reply any) int {
	if r, ok := reply.(messages.StartReply); ok {
		if !r.OK {
			return http.StatusConflict
		}
		return http.StatusAccepted
	}
	return http.StatusOK
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var env messages.Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	reply, err := s.deps.Dispatcher.Handle(r.Context(), env)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, replyStatus(reply), reply)
}

func (s *Server) startImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	env, err := messages.NewImport(req.CSV, req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	reply, err := s.deps.Dispatcher.Handle(r.Context(), env)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, replyStatus(reply), reply)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	reply, err := s.deps.Dispatcher.Handle(r.Context(), messages.NewStatus())
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
