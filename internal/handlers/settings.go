package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hamza-235/Smart-study-Planner/internal/persistence"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
)

const maxImportBytes = 10 << 20

func (h *PlannerHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Settings())
}

func (h *PlannerHandler) UpdateSettings(c *gin.Context) {
	var patch planner.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	settings, err := h.planner.UpdateSettings(c.Request.Context(), patch)
	h.respond(c, http.StatusOK, settings, err)
}

func (h *PlannerHandler) Export(c *gin.Context) {
	data, err := h.planner.Export()
	if err != nil {
		handlePlannerError(c, err)
		return
	}

	name := persistence.ExportFileName(h.clock())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *PlannerHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	data, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}

	err = h.planner.Import(c.Request.Context(), data)
	if err != nil && !errors.Is(err, planner.ErrPersistence) {
		handlePlannerError(c, err)
		return
	}

	h.respond(c, http.StatusOK, gin.H{
		"message": "data imported",
		"goals":   len(h.planner.ListGoals()),
		"tasks":   len(h.planner.SearchTasks(planner.TaskFilter{})),
	}, err)
}
