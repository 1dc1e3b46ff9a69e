package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/remote"
	"github.com/archgraph/core/internal/session"
	"github.com/archgraph/core/internal/stage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	resp  *models.RemoteValidationResponse
	err   error
	calls int
	got   models.RemoteValidationRequest
}

func (f *fakeValidator) Validate(_ context.Context, req models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	f.calls++
	f.got = req
	return f.resp, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *stage.Catalog {
	t.Helper()
	c := stage.NewCatalog(quietLogger())
	require.NoError(t, c.Add(stage.Stage{
		ID:    "stage-1",
		Title: "First steps",
		Requirements: []models.Requirement{
			{ID: "compute", Kind: models.KindComponentRequired, Params: models.Params{RequiredCategories: []string{"compute"}}},
			{ID: "database", Kind: models.KindComponentRequired, Params: models.Params{RequiredCategories: []string{"database"}}},
		},
	}))
	return c
}

func newSessionRouter(t *testing.T, rv session.RemoteValidator, observe RemoteObserver) *gin.Engine {
	t.Helper()

	catalog := testCatalog(t)
	manager := session.NewManager(catalog, session.WithLogger(quietLogger()), session.WithStrictInvariants(true))
	h := NewSessionHandler(manager, rv, observe, quietLogger())

	router := gin.New()
	router.GET("/stages", ListStages(catalog))
	router.GET("/stages/:stageId", GetStage(catalog))
	router.POST("/validate", ValidateHandler(remote.NewEvaluator(catalog, nil, quietLogger())))

	g := router.Group("/sessions/:stageId/:userId")
	g.PUT("", h.Open)
	g.GET("", h.GetSnapshot)
	g.DELETE("", h.End)
	g.GET("/graph", h.GetGraph)
	g.DELETE("/graph", h.Clear)
	g.POST("/nodes", h.AddNode)
	g.PATCH("/nodes/:nodeId", h.UpdateNode)
	g.DELETE("/nodes/:nodeId", h.DeleteNode)
	g.POST("/edges", h.AddEdge)
	g.DELETE("/edges/:edgeId", h.DeleteEdge)
	g.PUT("/requirements", h.SetRequirements)
	g.POST("/import", h.Import)
	g.POST("/remote-validate", h.RemoteValidate)
	return router
}

func call(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const base = "/sessions/stage-1/alice"

func addNode(t *testing.T, router http.Handler, descriptor map[string]any) NodeResponse {
	t.Helper()
	w := call(t, router, http.MethodPost, base+"/nodes", AddNodeRequest{Descriptor: descriptor})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[NodeResponse](t, w)
}

func openSession(t *testing.T, router http.Handler) {
	t.Helper()
	w := call(t, router, http.MethodPut, base, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSessionSnapshot(t *testing.T) {
	router := newSessionRouter(t, nil, nil)
	openSession(t, router)

	w := call(t, router, http.MethodGet, base, nil)

	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[models.DesignSnapshot](t, w)
	assert.Equal(t, 2, snap.Progress.Total)
	assert.Len(t, snap.ValidationResults, 2)
}

func TestSessionLifecycle(t *testing.T) {
	router := newSessionRouter(t, nil, nil)

	t.Run("reads do not create sessions", func(t *testing.T) {
		for _, path := range []string{base, base + "/graph"} {
			w := call(t, router, http.MethodGet, path, nil)

			assert.Equal(t, http.StatusNotFound, w.Code, path)
		}
		for _, path := range []string{base + "/nodes/n1", base + "/edges/e1", base + "/graph"} {
			w := call(t, router, http.MethodDelete, path, nil)

			assert.Equal(t, http.StatusNotFound, w.Code, path)
		}
		w := call(t, router, http.MethodPatch, base+"/nodes/n1", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown stages are refused", func(t *testing.T) {
		w := call(t, router, http.MethodPut, "/sessions/nope/alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = call(t, router, http.MethodPost, "/sessions/nope/alice/nodes", AddNodeRequest{Descriptor: map[string]any{"type": "server"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Error, "nope")

		w = call(t, router, http.MethodGet, "/sessions/nope/alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("open is idempotent", func(t *testing.T) {
		openSession(t, router)
		addNode(t, router, map[string]any{"type": "server"})

		w := call(t, router, http.MethodPut, base, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[models.DesignSnapshot](t, w).NodeCount)
	})

	t.Run("end discards the session", func(t *testing.T) {
		w := call(t, router, http.MethodDelete, base, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		assert.Equal(t, http.StatusNotFound, call(t, router, http.MethodGet, base, nil).Code)
		assert.Equal(t, http.StatusNotFound, call(t, router, http.MethodDelete, base, nil).Code)

		w = call(t, router, http.MethodPut, base, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Zero(t, decode[models.DesignSnapshot](t, w).NodeCount)
	})

	t.Run("first write opens the session", func(t *testing.T) {
		const path = "/sessions/stage-1/bob"

		w := call(t, router, http.MethodPost, path+"/nodes", AddNodeRequest{Descriptor: map[string]any{"type": "postgres"}})
		require.Equal(t, http.StatusCreated, w.Code)

		w = call(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[models.DesignSnapshot](t, w).NodeCount)
	})
}

func TestSessionNodes(t *testing.T) {
	router := newSessionRouter(t, nil, nil)

	t.Run("add node returns id and snapshot", func(t *testing.T) {
		resp := addNode(t, router, map[string]any{"type": "server", "cost": 25})

		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, 1, resp.Snapshot.NodeCount)
		assert.Equal(t, 25.0, resp.Snapshot.TotalCost)
		assert.Equal(t, 1, resp.Snapshot.Progress.Completed)
	})

	t.Run("add node requires a descriptor", func(t *testing.T) {
		w := call(t, router, http.MethodPost, base+"/nodes", `{"position": {"x": 1}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Error, "Invalid node")
	})

	t.Run("archetype override", func(t *testing.T) {
		w := call(t, router, http.MethodPost, base+"/nodes", AddNodeRequest{
			Descriptor: map[string]any{"label": "Orders DB"},
			Archetype:  "postgres",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		assert.True(t, decode[NodeResponse](t, w).Snapshot.AllRequirementsMet)
	})

	t.Run("patch node", func(t *testing.T) {
		created := addNode(t, router, map[string]any{"type": "redis", "cost": 5})

		w := call(t, router, http.MethodPatch, base+"/nodes/"+created.ID, `{"cost": 15, "label": "Hot cache"}`)

		require.Equal(t, http.StatusOK, w.Code)
		snap := decode[models.DesignSnapshot](t, w)
		assert.Equal(t, created.Snapshot.TotalCost+10, snap.TotalCost)

		graph := decode[models.Graph](t, call(t, router, http.MethodGet, base+"/graph", nil))
		var found bool
		for _, n := range graph.Nodes {
			if n.ID == created.ID {
				found = true
				assert.Equal(t, "Hot cache", n.Label)
			}
		}
		assert.True(t, found)
	})

	t.Run("patch with invalid body", func(t *testing.T) {
		w := call(t, router, http.MethodPatch, base+"/nodes/whatever", `{"cost": "cheap"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		before := decode[models.DesignSnapshot](t, call(t, router, http.MethodGet, base, nil))

		w := call(t, router, http.MethodDelete, base+"/nodes/ghost", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before, decode[models.DesignSnapshot](t, w))
	})
}

func TestSessionEdges(t *testing.T) {
	router := newSessionRouter(t, nil, nil)
	web := addNode(t, router, map[string]any{"type": "server"})
	db := addNode(t, router, map[string]any{"type": "postgres"})

	w := call(t, router, http.MethodPost, base+"/edges", models.Connection{Source: web.ID, Target: db.ID})
	require.Equal(t, http.StatusOK, w.Code)
	added := decode[EdgeResponse](t, w)
	assert.True(t, added.Added)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, 1, added.Snapshot.EdgeCount)

	t.Run("duplicate is reported, not failed", func(t *testing.T) {
		w := call(t, router, http.MethodPost, base+"/edges", models.Connection{Source: db.ID, Target: web.ID})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[EdgeResponse](t, w)
		assert.False(t, resp.Added)
		assert.Empty(t, resp.ID)
		assert.Equal(t, 1, resp.Snapshot.EdgeCount)
	})

	t.Run("delete edge", func(t *testing.T) {
		w := call(t, router, http.MethodDelete, base+"/edges/"+added.ID, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, decode[models.DesignSnapshot](t, w).EdgeCount)
	})

	t.Run("deleting a node removes its edges", func(t *testing.T) {
		call(t, router, http.MethodPost, base+"/edges", models.Connection{Source: web.ID, Target: db.ID})

		w := call(t, router, http.MethodDelete, base+"/nodes/"+db.ID, nil)

		snap := decode[models.DesignSnapshot](t, w)
		assert.Equal(t, 1, snap.NodeCount)
		assert.Zero(t, snap.EdgeCount)
	})
}

func TestSessionRequirementsAndClear(t *testing.T) {
	router := newSessionRouter(t, nil, nil)
	addNode(t, router, map[string]any{"type": "server", "cost": 80})

	t.Run("replace requirements", func(t *testing.T) {
		w := call(t, router, http.MethodPut, base+"/requirements", `[
			{"id": "budget", "validationKind": "cost_constraint", "params": {"targetValue": 50}}
		]`)

		require.Equal(t, http.StatusOK, w.Code)
		snap := decode[models.DesignSnapshot](t, w)
		require.Len(t, snap.ValidationResults, 1)
		assert.Equal(t, "budget", snap.ValidationResults[0].RequirementID)
		assert.False(t, snap.ValidationResults[0].Completed)
	})

	t.Run("invalid requirements are rejected", func(t *testing.T) {
		w := call(t, router, http.MethodPut, base+"/requirements", `[{"id": "", "validationKind": "metric"}]`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate requirement ids are rejected", func(t *testing.T) {
		w := call(t, router, http.MethodPut, base+"/requirements", `[
			{"id": "a", "validationKind": "metric"},
			{"id": "a", "validationKind": "metric"}
		]`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clear keeps requirements", func(t *testing.T) {
		w := call(t, router, http.MethodDelete, base+"/graph", nil)

		require.Equal(t, http.StatusOK, w.Code)
		snap := decode[models.DesignSnapshot](t, w)
		assert.Zero(t, snap.NodeCount)
		assert.Zero(t, snap.TotalCost)
		assert.Len(t, snap.ValidationResults, 1)
		assert.True(t, snap.ValidationResults[0].Completed)
	})
}

func TestSessionImport(t *testing.T) {
	router := newSessionRouter(t, nil, nil)
	addNode(t, router, map[string]any{"id": "scratch"})

	w := call(t, router, http.MethodPost, base+"/import", sampleState)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ImportResponse](t, w)
	assert.Zero(t, resp.RejectedEdges)
	assert.Len(t, resp.Graph.Nodes, 2)
	assert.Equal(t, 100.0, resp.Snapshot.TotalCost)
	assert.True(t, resp.Snapshot.AllRequirementsMet)

	w = call(t, router, http.MethodPost, base+"/import", `{"version": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRemoteValidate(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router := newSessionRouter(t, nil, nil)

		w := call(t, router, http.MethodPost, base+"/remote-validate", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("success is passed through", func(t *testing.T) {
		fv := &fakeValidator{resp: &models.RemoteValidationResponse{Success: true, AttemptID: "att-1"}}
		var observed []error
		router := newSessionRouter(t, fv, func(err error, _ time.Duration) { observed = append(observed, err) })
		openSession(t, router)

		w := call(t, router, http.MethodPost, base+"/remote-validate", RemoteValidateRequest{PriorAttemptID: "att-0"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "att-1", decode[models.RemoteValidationResponse](t, w).AttemptID)
		assert.Equal(t, 1, fv.calls)
		assert.Equal(t, "att-0", fv.got.PriorAttemptID)
		assert.Equal(t, []error{nil}, observed)
	})

	t.Run("chunked body is read", func(t *testing.T) {
		fv := &fakeValidator{resp: &models.RemoteValidationResponse{Success: true}}
		router := newSessionRouter(t, fv, nil)
		openSession(t, router)

		body := io.MultiReader(strings.NewReader(`{"priorAttemptId": "att-7"}`))
		req := httptest.NewRequest(http.MethodPost, base+"/remote-validate", body)
		req.Header.Set("Content-Type", "application/json")
		require.EqualValues(t, -1, req.ContentLength)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "att-7", fv.got.PriorAttemptID)
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		fv := &fakeValidator{resp: &models.RemoteValidationResponse{Success: true}}
		router := newSessionRouter(t, fv, nil)
		openSession(t, router)

		w := call(t, router, http.MethodPost, base+"/remote-validate", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, fv.got.PriorAttemptID)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		fv := &fakeValidator{resp: &models.RemoteValidationResponse{Success: true}}
		router := newSessionRouter(t, fv, nil)
		openSession(t, router)

		w := call(t, router, http.MethodPost, base+"/remote-validate", `{"priorAttemptId": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, fv.calls)
	})

	t.Run("no session is 404", func(t *testing.T) {
		fv := &fakeValidator{resp: &models.RemoteValidationResponse{Success: true}}
		router := newSessionRouter(t, fv, nil)

		w := call(t, router, http.MethodPost, base+"/remote-validate", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, fv.calls)
	})

	t.Run("failure returns 502 with the local snapshot", func(t *testing.T) {
		fv := &fakeValidator{err: fmt.Errorf("%w: connection refused", remote.ErrUnavailable)}
		var observed []error
		router := newSessionRouter(t, fv, func(err error, _ time.Duration) { observed = append(observed, err) })
		addNode(t, router, map[string]any{"type": "server"})

		w := call(t, router, http.MethodPost, base+"/remote-validate", nil)

		require.Equal(t, http.StatusBadGateway, w.Code)
		resp := decode[RemoteFailure](t, w)
		assert.Contains(t, resp.Error, "connection refused")
		assert.Equal(t, 1, resp.Snapshot.NodeCount)
		require.Len(t, observed, 1)
		assert.True(t, errors.Is(observed[0], remote.ErrUnavailable))
	})
}

func TestValidateHandler(t *testing.T) {
	router := newSessionRouter(t, nil, nil)

	t.Run("evaluates a submitted graph", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/validate", models.RemoteValidationRequest{
			StageID: "stage-1",
			UserID:  "u1",
			Nodes:   []models.Node{{ID: "web", Archetype: "server", Category: "compute"}},
		})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[models.RemoteValidationResponse](t, w)
		assert.Equal(t, 1, resp.Summary.CompletedRequirements)
		assert.Equal(t, 2, resp.Summary.TotalRequirements)
	})

	t.Run("unknown stage is 404", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/validate", models.RemoteValidationRequest{StageID: "nope", UserID: "u1"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing user is 400", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/validate", models.RemoteValidationRequest{StageID: "stage-1"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/validate", `{"stageId": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
