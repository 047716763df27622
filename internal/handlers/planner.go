package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/monitoring"
	"github.com/Hamza-235/Smart-study-Planner/internal/persistence"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
	"github.com/Hamza-235/Smart-study-Planner/internal/reminder"
)

// PersistenceWarningHeader is set when a mutation was applied but could not be saved.
const PersistenceWarningHeader = monitoring.PersistenceWarningHeader

// Planner is the store surface the API needs. *planner.Store satisfies it.
type Planner interface {
	ListGoals() []models.Goal
	GetGoal(id string) *models.Goal
	CreateGoal(ctx context.Context, in planner.GoalInput) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id string, patch planner.GoalPatch) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) (bool, error)
	ListTasksByGoal(goalID string) []models.Task
	GoalProgress(goalID string) *planner.GoalProgress

	GetTask(id string) *models.Task
	SearchTasks(f planner.TaskFilter) []models.Task
	CreateTask(ctx context.Context, in planner.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch planner.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	ToggleCompletion(ctx context.Context, id string) (*models.Task, error)

	Dashboard(now time.Time) planner.Dashboard
	CalendarMonth(year int, month time.Month, loc *time.Location) planner.Calendar
	Timeline() planner.Timeline
	UpcomingReminders(now time.Time) []models.Task

	Settings() models.Settings
	UpdateSettings(ctx context.Context, patch planner.SettingsPatch) (models.Settings, error)
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) error
}

// Reminders is the reminder engine surface. *reminder.Engine satisfies it.
type Reminders interface {
	Snooze(ctx context.Context, taskID string, minutes int, now time.Time) (*models.Task, error)
	State(task models.Task, now time.Time) reminder.State
}

// Inbox lists recent in-app notifications. *reminder.LogNotifier satisfies it.
type Inbox interface {
	Recent() []reminder.Delivered
}

type PlannerHandler struct {
	planner   Planner
	reminders Reminders
	inbox     Inbox
	clock     func() time.Time
	logger    logrus.FieldLogger
}

func NewPlannerHandler(p Planner, reminders Reminders, inbox Inbox, clock func() time.Time, logger logrus.FieldLogger) *PlannerHandler {
	if clock == nil {
		clock = time.Now
	}
	return &PlannerHandler{
		planner:   p,
		reminders: reminders,
		inbox:     inbox,
		clock:     clock,
		logger:    logger,
	}
}

func (h *PlannerHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/goals", h.ListGoals)
	api.POST("/goals", h.CreateGoal)
	api.GET("/goals/:id", h.GetGoal)
	api.PATCH("/goals/:id", h.UpdateGoal)
	api.DELETE("/goals/:id", h.DeleteGoal)
	api.GET("/goals/:id/tasks", h.ListGoalTasks)

	api.GET("/tasks", h.ListTasks)
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/toggle", h.ToggleTask)

	api.GET("/dashboard", h.Dashboard)
	api.GET("/calendar", h.Calendar)
	api.GET("/timeline", h.Timeline)

	api.GET("/reminders/upcoming", h.UpcomingReminders)
	api.POST("/reminders/:id/snooze", h.SnoozeReminder)
	api.GET("/notifications", h.Notifications)

	api.GET("/settings", h.GetSettings)
	api.PATCH("/settings", h.UpdateSettings)
	api.GET("/export", h.Export)
	api.POST("/import", h.Import)
}

// respond writes body with status. A persistence failure still returns the
// applied result, flagged through PersistenceWarningHeader.
func (h *PlannerHandler) respond(c *gin.Context, status int, body interface{}, err error) {
	if err != nil && !errors.Is(err, planner.ErrPersistence) {
		handlePlannerError(c, err)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("path", c.FullPath()).Warn("change applied but not saved")
		c.Header(PersistenceWarningHeader, "changes could not be saved")
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

func handlePlannerError(c *gin.Context, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   verr.Field,
			"message": verr.Message,
		})
	case errors.Is(err, persistence.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_document",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to process planner request",
		})
	}
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}
