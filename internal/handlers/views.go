package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *PlannerHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Dashboard(h.clock()))
}

// Calendar serves the month grid. year and month default to the current
// month; tz is an optional IANA zone name.
func (h *PlannerHandler) Calendar(c *gin.Context) {
	now := h.clock()
	loc := now.Location()
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			badRequest(c, fmt.Errorf("unknown time zone %q", tz))
			return
		}
		loc = l
		now = now.In(loc)
	}

	year, month := now.Year(), now.Month()
	if y := c.Query("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil || v < 1 {
			badRequest(c, fmt.Errorf("year must be a positive number"))
			return
		}
		year = v
	}
	if m := c.Query("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 || v > 12 {
			badRequest(c, fmt.Errorf("month must be between 1 and 12"))
			return
		}
		month = time.Month(v)
	}

	c.JSON(http.StatusOK, h.planner.CalendarMonth(year, month, loc))
}

func (h *PlannerHandler) Timeline(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Timeline())
}
