package handlers

import (
	"io"
	"net/http"

	"github.com/archgraph/core/internal/graph"
	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/parser"
	"github.com/gin-gonic/gin"
)

// maxStateBytes caps the size of an uploaded Terraform state.
const maxStateBytes = 16 << 20

// ParseHandler converts a Terraform state into a design graph without
// touching any session.
func ParseHandler(c *gin.Context) {
	g, err := readStateGraph(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid tfstate: "+err.Error())
		return
	}

	store := graph.NewStore()
	store.Load(*g)
	respond(c, http.StatusOK, store.Graph())
}

func readStateGraph(c *gin.Context) (*models.Graph, error) {
	defer c.Request.Body.Close()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStateBytes))
	if err != nil {
		return nil, err
	}

	state, err := parser.ParseTfstate(body)
	if err != nil {
		return nil, err
	}

	return parser.BuildGraph(state), nil
}
