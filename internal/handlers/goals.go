package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
)

type goalResponse struct {
	models.Goal
	Progress *planner.GoalProgress `json:"progress,omitempty"`
}

func (h *PlannerHandler) withProgress(g models.Goal) goalResponse {
	return goalResponse{Goal: g, Progress: h.planner.GoalProgress(g.ID)}
}

func (h *PlannerHandler) ListGoals(c *gin.Context) {
	goals := h.planner.ListGoals()
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, h.withProgress(g))
	}
	c.JSON(http.StatusOK, out)
}

func (h *PlannerHandler) GetGoal(c *gin.Context) {
	goal := h.planner.GetGoal(c.Param("id"))
	if goal == nil {
		notFound(c, "goal")
		return
	}
	c.JSON(http.StatusOK, h.withProgress(*goal))
}

func (h *PlannerHandler) CreateGoal(c *gin.Context) {
	var in planner.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	goal, err := h.planner.CreateGoal(c.Request.Context(), in)
	if goal == nil {
		handlePlannerError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, goal, err)
}

func (h *PlannerHandler) UpdateGoal(c *gin.Context) {
	var patch planner.GoalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	goal, err := h.planner.UpdateGoal(c.Request.Context(), c.Param("id"), patch)
	if goal == nil {
		if err != nil {
			handlePlannerError(c, err)
			return
		}
		notFound(c, "goal")
		return
	}
	h.respond(c, http.StatusOK, goal, err)
}

func (h *PlannerHandler) DeleteGoal(c *gin.Context) {
	removed, err := h.planner.DeleteGoal(c.Request.Context(), c.Param("id"))
	if !removed {
		notFound(c, "goal")
		return
	}
	h.respond(c, http.StatusNoContent, nil, err)
}

func (h *PlannerHandler) ListGoalTasks(c *gin.Context) {
	id := c.Param("id")
	if h.planner.GetGoal(id) == nil {
		notFound(c, "goal")
		return
	}
	c.JSON(http.StatusOK, h.planner.ListTasksByGoal(id))
}
