package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
)

func (h *PlannerHandler) ListTasks(c *gin.Context) {
	filter := planner.TaskFilter{
		Query:  c.Query("q"),
		GoalID: c.Query("goalId"),
		SortBy: c.Query("sortBy"),
	}
	if p := c.Query("priority"); p != "" {
		priority, err := strconv.Atoi(p)
		if err != nil {
			badRequest(c, fmt.Errorf("priority must be a number"))
			return
		}
		filter.Priority = priority
	}

	c.JSON(http.StatusOK, h.planner.SearchTasks(filter))
}

func (h *PlannerHandler) GetTask(c *gin.Context) {
	task := h.planner.GetTask(c.Param("id"))
	if task == nil {
		notFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *PlannerHandler) CreateTask(c *gin.Context) {
	var in planner.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.planner.CreateTask(c.Request.Context(), in)
	if task == nil {
		handlePlannerError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, task, err)
}

func (h *PlannerHandler) UpdateTask(c *gin.Context) {
	var patch planner.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.planner.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if task == nil {
		if err != nil {
			handlePlannerError(c, err)
			return
		}
		notFound(c, "task")
		return
	}
	h.respond(c, http.StatusOK, task, err)
}

func (h *PlannerHandler) DeleteTask(c *gin.Context) {
	removed, err := h.planner.DeleteTask(c.Request.Context(), c.Param("id"))
	if !removed {
		notFound(c, "task")
		return
	}
	h.respond(c, http.StatusNoContent, nil, err)
}

func (h *PlannerHandler) ToggleTask(c *gin.Context) {
	task, err := h.planner.ToggleCompletion(c.Request.Context(), c.Param("id"))
	if task == nil {
		notFound(c, "task")
		return
	}
	h.respond(c, http.StatusOK, task, err)
}
