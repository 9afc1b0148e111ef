package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/yggdrasil/internal/delta"
	"github.com/roach88/yggdrasil/internal/distribution"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RunRequest triggers a distribution run.
type RunRequest struct {
	Agendas []string `json:"agendas" binding:"omitempty,dive,url"`
	Initial bool     `json:"initial"`
	All     bool     `json:"all"`
}

// RunResponse reports a finished run.
type RunResponse struct {
	distribution.RunResult
	Error        string `json:"error,omitempty"`
	FailedStage  string `json:"failed_stage,omitempty"`
	CleanupError string `json:"cleanup_error,omitempty"`
}

func newRunResponse(res distribution.RunResult) RunResponse {
	out := RunResponse{RunResult: res}
	if res.Err != nil {
		out.Error = res.Err.Error()
		if stage, ok := distribution.FailedStage(res.Err); ok {
			out.FailedStage = string(stage)
		}
	}
	if res.CleanupErr != nil {
		out.CleanupError = res.CleanupErr.Error()
	}
	return out
}

// Distribution describes one profile.
type Distribution struct {
	Profile string       `json:"profile"`
	Source  string       `json:"source"`
	Target  string       `json:"target"`
	Enabled bool         `json:"enabled"`
	LastRun *RunResponse `json:"last_run,omitempty"`
}

// ResolveRequest asks which agendas resources belong to.
type ResolveRequest struct {
	Subjects []string `json:"subjects" binding:"required,min=1,dive,required"`
}

// ResolveResponse lists the agendas.
type ResolveResponse struct {
	Agendas []string `json:"agendas"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleDelta accepts a mu delta notification. Processing happens after
// the debounce period.
func (s *Server) handleDelta(c *gin.Context) {
	if s.coalescer == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "delta processing is disabled", Code: "DELTA_DISABLED"})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	changesets, err := delta.ParseChangesets(body)
	if err != nil {
		slog.Warn("invalid delta notification", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_DELTA"})
		return
	}
	s.coalescer.Notify(changesets)
	c.JSON(http.StatusAccepted, gin.H{"pending": s.coalescer.Pending()})
}

func (s *Server) handleListDistributions(c *gin.Context) {
	out := make([]Distribution, 0, len(s.order))
	for _, name := range s.order {
		e := s.engines[name]
		p := e.Profile()
		d := Distribution{Profile: name, Source: p.Source, Target: p.Target, Enabled: s.enabled[name]}
		if last, ok := e.LastResult(); ok {
			resp := newRunResponse(last)
			d.LastRun = &resp
		}
		out = append(out, d)
	}
	c.JSON(http.StatusOK, out)
}

// handleRunDistribution runs one profile and answers when the run is done.
func (s *Server) handleRunDistribution(c *gin.Context) {
	name := c.Param("profile")
	e, ok := s.engines[name]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown profile " + name, Code: "UNKNOWN_PROFILE"})
		return
	}

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	scope := distribution.Scope{Agendas: req.Agendas, Initial: req.Initial, All: req.All}
	if err := scope.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_SCOPE"})
		return
	}

	res := e.Run(c.Request.Context(), scope)
	switch {
	case errors.Is(res.Err, distribution.ErrRunInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: res.Err.Error(), Code: "RUN_IN_PROGRESS"})
	case res.Err != nil:
		c.JSON(http.StatusInternalServerError, newRunResponse(res))
	default:
		c.JSON(http.StatusOK, newRunResponse(res))
	}
}

func (s *Server) handleResolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	agendas, err := s.resolver.Resolve(c.Request.Context(), req.Subjects)
	if err != nil {
		slog.Error("resolve failed", "subjects", len(req.Subjects), "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "RESOLVE_FAILED"})
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{Agendas: agendas})
}
