// Package monitoring tracks API traffic per planner resource and serves the
// health, readiness, liveness and metrics endpoints.
package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// PersistenceWarningHeader marks a response whose change was applied in memory
// but not saved.
const PersistenceWarningHeader = "X-Persistence-Warning"

// Resource groups for request accounting.
const (
	ResourceGoals     = "goals"
	ResourceTasks     = "tasks"
	ResourceReminders = "reminders"
	ResourceViews     = "views"
	ResourceData      = "data"
	ResourceAuth      = "auth"
	ResourceOps       = "ops"
	ResourceUnmatched = "unmatched"
)

var resourceByPrefix = map[string]string{
	"goals":         ResourceGoals,
	"tasks":         ResourceTasks,
	"reminders":     ResourceReminders,
	"notifications": ResourceReminders,
	"dashboard":     ResourceViews,
	"calendar":      ResourceViews,
	"timeline":      ResourceViews,
	"settings":      ResourceData,
	"export":        ResourceData,
	"import":        ResourceData,
	"auth":          ResourceAuth,
}

// ResourceFor maps a gin route pattern such as "/api/goals/:id/tasks" to its
// resource group.
func ResourceFor(route string) string {
	if route == "" {
		return ResourceUnmatched
	}
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return ResourceOps
	}
	first, _, _ := strings.Cut(rest, "/")
	if resource, ok := resourceByPrefix[first]; ok {
		return resource
	}
	return ResourceUnmatched
}

type ResourceStats struct {
	Requests       int64         `json:"requests"`
	Errors         int64         `json:"errors"`
	Mutations      int64         `json:"mutations"`
	UnsavedChanges int64         `json:"unsaved_changes"`
	AvgDuration    time.Duration `json:"avg_duration_ns"`
	totalDuration  time.Duration
}

type Metrics struct {
	mu             sync.RWMutex
	RequestCount   int64                     `json:"request_count"`
	ActiveRequests int64                     `json:"active_requests"`
	ErrorCount     int64                     `json:"error_count"`
	UnsavedChanges int64                     `json:"unsaved_changes"`
	StatusCodes    map[int]int64             `json:"status_codes"`
	Endpoints      map[string]int64          `json:"endpoint_calls"`
	Resources      map[string]*ResourceStats `json:"resources"`
	StartTime      time.Time                 `json:"start_time"`
	LastRequest    time.Time                 `json:"last_request"`
}

type HealthChecker struct {
	checks map[string]HealthCheck
	funcs  map[string]HealthCheckFunc
	stats  map[string]StatsFunc
	mu     sync.RWMutex
}

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

type StatsFunc func() interface{}

var globalMetrics = newMetrics()

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheck),
	funcs:  make(map[string]HealthCheckFunc),
	stats:  make(map[string]StatsFunc),
}

func newMetrics() *Metrics {
	return &Metrics{
		StatusCodes: make(map[int]int64),
		Endpoints:   make(map[string]int64),
		Resources:   make(map[string]*ResourceStats),
		StartTime:   time.Now(),
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// MetricsMiddleware counts requests per route and per resource. Mutations that
// come back with PersistenceWarningHeader are counted as unsaved changes.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		unsaved := c.Writer.Header().Get(PersistenceWarningHeader) != ""

		globalMetrics.mu.Lock()
		defer globalMetrics.mu.Unlock()

		globalMetrics.RequestCount++
		globalMetrics.ActiveRequests--
		globalMetrics.LastRequest = time.Now()
		globalMetrics.StatusCodes[status]++
		if route != "" {
			globalMetrics.Endpoints[c.Request.Method+" "+route]++
		}

		rs := globalMetrics.Resources[ResourceFor(route)]
		if rs == nil {
			rs = &ResourceStats{}
			globalMetrics.Resources[ResourceFor(route)] = rs
		}
		rs.Requests++
		rs.totalDuration += duration
		rs.AvgDuration = rs.totalDuration / time.Duration(rs.Requests)
		if status >= 400 {
			rs.Errors++
			globalMetrics.ErrorCount++
		}
		if isMutation(c.Request.Method) && status < 400 {
			rs.Mutations++
		}
		if unsaved {
			rs.UnsavedChanges++
			globalMetrics.UnsavedChanges++
		}
	}
}

// GetMetrics returns a copy of the request counters.
func GetMetrics() *Metrics {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	out := newMetrics()
	out.RequestCount = globalMetrics.RequestCount
	out.ActiveRequests = globalMetrics.ActiveRequests
	out.ErrorCount = globalMetrics.ErrorCount
	out.UnsavedChanges = globalMetrics.UnsavedChanges
	out.StartTime = globalMetrics.StartTime
	out.LastRequest = globalMetrics.LastRequest
	for k, v := range globalMetrics.StatusCodes {
		out.StatusCodes[k] = v
	}
	for k, v := range globalMetrics.Endpoints {
		out.Endpoints[k] = v
	}
	for k, v := range globalMetrics.Resources {
		rs := *v
		out.Resources[k] = &rs
	}
	return out
}

type SystemMetrics struct {
	Uptime         string `json:"uptime"`
	GoroutineCount int    `json:"goroutine_count"`
	HeapAllocMB    uint64 `json:"heap_alloc_mb"`
	NumGC          uint32 `json:"num_gc"`
	GoVersion      string `json:"go_version"`
}

func GetSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		Uptime:         time.Since(globalMetrics.StartTime).Round(time.Second).String(),
		GoroutineCount: runtime.NumGoroutine(),
		HeapAllocMB:    m.HeapAlloc / 1024 / 1024,
		NumGC:          m.NumGC,
		GoVersion:      runtime.Version(),
	}
}

// RegisterHealthCheck stores a named check; checks run on every health request.
func RegisterHealthCheck(name string, checkFunc HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.funcs[name] = checkFunc
}

// RegisterStats adds a named section to the /metrics response.
func RegisterStats(name string, provider StatsFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.stats[name] = provider
}

// Reset drops every registered check, stats provider and counter.
func Reset() {
	globalHealthChecker.mu.Lock()
	globalHealthChecker.funcs = make(map[string]HealthCheckFunc)
	globalHealthChecker.checks = make(map[string]HealthCheck)
	globalHealthChecker.stats = make(map[string]StatsFunc)
	globalHealthChecker.mu.Unlock()

	globalMetrics.mu.Lock()
	globalMetrics.RequestCount = 0
	globalMetrics.ActiveRequests = 0
	globalMetrics.ErrorCount = 0
	globalMetrics.UnsavedChanges = 0
	globalMetrics.StatusCodes = make(map[int]int64)
	globalMetrics.Endpoints = make(map[string]int64)
	globalMetrics.Resources = make(map[string]*ResourceStats)
	globalMetrics.mu.Unlock()
}

func RunHealthChecks(ctx context.Context) map[string]HealthCheck {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()

	results := make(map[string]HealthCheck)

	for name, checkFunc := range globalHealthChecker.funcs {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := checkFunc(checkCtx)
		cancel()

		check := HealthCheck{
			Name:    name,
			Status:  "healthy",
			LastRun: time.Now(),
		}
		if err != nil {
			check.Status = "unhealthy"
			check.Message = err.Error()
		}

		results[name] = check
		globalHealthChecker.checks[name] = check
	}

	return results
}

func collectStats() map[string]interface{} {
	globalHealthChecker.mu.RLock()
	defer globalHealthChecker.mu.RUnlock()

	out := make(map[string]interface{}, len(globalHealthChecker.stats))
	for name, provider := range globalHealthChecker.stats {
		out[name] = provider()
	}
	return out
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics := GetMetrics()
		systemMetrics := GetSystemMetrics()

		response := gin.H{
			"application": metrics,
			"system":      systemMetrics,
			"components":  collectStats(),
			"timestamp":   time.Now(),
		}

		c.JSON(http.StatusOK, response)
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks(c.Request.Context())

		overallStatus := "healthy"
		for _, check := range checks {
			if check.Status != "healthy" {
				overallStatus = "unhealthy"
				break
			}
		}

		response := gin.H{
			"status":    overallStatus,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(globalMetrics.StartTime).String(),
		}

		status := http.StatusOK
		if overallStatus != "healthy" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, response)
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks(c.Request.Context())

		ready := true
		for _, check := range checks {
			if check.Status != "healthy" {
				ready = false
				break
			}
		}

		if ready {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ready",
				"timestamp": time.Now(),
			})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
		}
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(globalMetrics.StartTime).String(),
		})
	}
}
