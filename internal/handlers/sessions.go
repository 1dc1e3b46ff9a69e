package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/remote"
	"github.com/archgraph/core/internal/session"
	"github.com/archgraph/core/internal/stage"
	"github.com/gin-gonic/gin"
)

// RemoteObserver is notified of every proxied remote validation call.
type RemoteObserver func(err error, elapsed time.Duration)

// SessionHandler serves the design-session endpoints. Sessions are opened
// explicitly or by the first write for a (stage, user) pair; reads of a pair
// with no session answer 404.
type SessionHandler struct {
	manager *session.Manager
	remote  session.RemoteValidator
	observe RemoteObserver
	logger  *slog.Logger
}

func NewSessionHandler(manager *session.Manager, rv session.RemoteValidator, observe RemoteObserver, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{manager: manager, remote: rv, observe: observe, logger: logger}
}

type AddNodeRequest struct {
	Descriptor map[string]any  `json:"descriptor" binding:"required"`
	Position   models.Position `json:"position"`
	Archetype  string          `json:"archetype,omitempty"`
}

type NodeResponse struct {
	ID       string                `json:"id"`
	Snapshot models.DesignSnapshot `json:"snapshot"`
}

type EdgeResponse struct {
	ID       string                `json:"id,omitempty"`
	Added    bool                  `json:"added"`
	Snapshot models.DesignSnapshot `json:"snapshot"`
}

type ImportResponse struct {
	RejectedEdges int                   `json:"rejectedEdges"`
	Graph         models.Graph          `json:"graph"`
	Snapshot      models.DesignSnapshot `json:"snapshot"`
}

type RemoteValidateRequest struct {
	PriorAttemptID string `json:"priorAttemptId,omitempty"`
}

// RemoteFailure is returned when the remote validator could not produce a
// result. The local snapshot is included unchanged.
type RemoteFailure struct {
	Error    string                `json:"error"`
	Snapshot models.DesignSnapshot `json:"snapshot"`
}

// existing looks up the session for the request and answers 404 when there
// is none.
func (h *SessionHandler) existing(c *gin.Context) (*session.Session, bool) {
	s, ok := h.manager.Get(c.Param("stageId"), c.Param("userId"))
	if !ok {
		fail(c, http.StatusNotFound, "Session not found")
	}
	return s, ok
}

// open returns the session for the request, creating it if needed.
func (h *SessionHandler) open(c *gin.Context) (*session.Session, bool, bool) {
	s, created, err := h.manager.Open(c.Param("stageId"), c.Param("userId"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error()+": "+c.Param("stageId"))
		return nil, false, false
	}
	if created {
		h.logger.Debug("session opened", "stage_id", s.StageID(), "user_id", s.UserID())
	}
	return s, created, true
}

// Open starts a session, or returns the current one, with its snapshot.
func (h *SessionHandler) Open(c *gin.Context) {
	s, created, ok := h.open(c)
	if !ok {
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(c, status, s.Snapshot())
}

// End discards the session and everything in it.
func (h *SessionHandler) End(c *gin.Context) {
	if !h.manager.Delete(c.Param("stageId"), c.Param("userId")) {
		fail(c, http.StatusNotFound, "Session not found")
		return
	}
	h.logger.Debug("session ended", "stage_id", c.Param("stageId"), "user_id", c.Param("userId"))
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) GetSnapshot(c *gin.Context) {
	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.Snapshot())
	}
}

func (h *SessionHandler) GetGraph(c *gin.Context) {
	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.Graph())
	}
}

// Clear empties the session graph and keeps its requirements.
func (h *SessionHandler) Clear(c *gin.Context) {
	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.Clear())
	}
}

func (h *SessionHandler) AddNode(c *gin.Context) {
	var req AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid node: "+err.Error())
		return
	}

	s, _, ok := h.open(c)
	if !ok {
		return
	}
	id, snap := s.AddNode(req.Descriptor, req.Position, req.Archetype)
	respond(c, http.StatusCreated, NodeResponse{ID: id, Snapshot: snap})
}

// UpdateNode merges the patch. Unknown node ids are accepted and ignored.
func (h *SessionHandler) UpdateNode(c *gin.Context) {
	var patch models.NodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid node patch: "+err.Error())
		return
	}

	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.UpdateNode(c.Param("nodeId"), patch))
	}
}

func (h *SessionHandler) DeleteNode(c *gin.Context) {
	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.DeleteNode(c.Param("nodeId")))
	}
}

// AddEdge answers 200 with added=false for rejected connections: the canvas
// sends speculative connections while dragging.
func (h *SessionHandler) AddEdge(c *gin.Context) {
	var conn models.Connection
	if err := c.ShouldBindJSON(&conn); err != nil {
		fail(c, http.StatusBadRequest, "Invalid connection: "+err.Error())
		return
	}

	s, _, ok := h.open(c)
	if !ok {
		return
	}
	id, snap, added := s.AddEdge(conn)
	respond(c, http.StatusOK, EdgeResponse{ID: id, Added: added, Snapshot: snap})
}

func (h *SessionHandler) DeleteEdge(c *gin.Context) {
	if s, ok := h.existing(c); ok {
		respond(c, http.StatusOK, s.DeleteEdge(c.Param("edgeId")))
	}
}

func (h *SessionHandler) SetRequirements(c *gin.Context) {
	var reqs []models.Requirement
	if err := c.ShouldBindJSON(&reqs); err != nil {
		fail(c, http.StatusBadRequest, "Invalid requirements: "+err.Error())
		return
	}
	if err := stage.ValidateRequirements(reqs); err != nil {
		fail(c, http.StatusBadRequest, "Invalid requirements: "+err.Error())
		return
	}

	s, _, ok := h.open(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, s.SetRequirements(reqs))
}

// Import replaces the session graph with one built from a Terraform state.
func (h *SessionHandler) Import(c *gin.Context) {
	g, err := readStateGraph(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid tfstate: "+err.Error())
		return
	}

	s, _, ok := h.open(c)
	if !ok {
		return
	}
	res := s.Load(*g)
	respond(c, http.StatusOK, ImportResponse{
		RejectedEdges: res.Rejected,
		Graph:         res.Graph,
		Snapshot:      res.Snapshot,
	})
}

// RemoteValidate forwards the session graph to the configured remote
// validator. Failures are reported with 502 and leave the session untouched.
// The request body is optional.
func (h *SessionHandler) RemoteValidate(c *gin.Context) {
	if h.remote == nil {
		fail(c, http.StatusServiceUnavailable, "remote validation is not configured")
		return
	}

	var req RemoteValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	s, ok := h.existing(c)
	if !ok {
		return
	}
	start := time.Now()
	resp, err := s.RemoteValidate(c.Request.Context(), h.remote, req.PriorAttemptID)
	if h.observe != nil {
		h.observe(err, time.Since(start))
	}
	if err != nil {
		respond(c, http.StatusBadGateway, RemoteFailure{Error: err.Error(), Snapshot: s.Snapshot()})
		return
	}

	h.logger.Debug("remote validation completed",
		"stage_id", s.StageID(), "user_id", s.UserID(), "attempt_id", resp.AttemptID)
	respond(c, http.StatusOK, resp)
}

// ValidateHandler serves the remote validation contract itself.
func ValidateHandler(v session.RemoteValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RemoteValidationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}

		resp, err := v.Validate(c.Request.Context(), req)
		switch {
		case errors.Is(err, remote.ErrInvalidRequest):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, remote.ErrUnknownStage):
			fail(c, http.StatusNotFound, err.Error())
		case err != nil:
			fail(c, http.StatusInternalServerError, err.Error())
		default:
			respond(c, http.StatusOK, resp)
		}
	}
}
