package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/reminder"
)

type upcomingReminder struct {
	models.Task
	State reminder.State `json:"state"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

func (h *PlannerHandler) UpcomingReminders(c *gin.Context) {
	now := h.clock()
	tasks := h.planner.UpcomingReminders(now)

	out := make([]upcomingReminder, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, upcomingReminder{Task: t, State: h.reminders.State(t, now)})
	}
	c.JSON(http.StatusOK, out)
}

func (h *PlannerHandler) SnoozeReminder(c *gin.Context) {
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.reminders.Snooze(c.Request.Context(), c.Param("id"), req.Minutes, h.clock())
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

func (h *PlannerHandler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.inbox.Recent())
}
