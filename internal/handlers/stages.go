package handlers

import (
	"net/http"

	"github.com/archgraph/core/internal/stage"
	"github.com/gin-gonic/gin"
)

type StageSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Requirements int    `json:"requirements"`
}

func ListStages(catalog *stage.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		stages := catalog.List()
		out := make([]StageSummary, len(stages))
		for i, s := range stages {
			out[i] = StageSummary{ID: s.ID, Title: s.Title, Requirements: len(s.Requirements)}
		}
		respond(c, http.StatusOK, out)
	}
}

func GetStage(catalog *stage.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := catalog.Get(c.Param("stageId"))
		if !ok {
			fail(c, http.StatusNotFound, "stage not found")
			return
		}
		respond(c, http.StatusOK, s)
	}
}
