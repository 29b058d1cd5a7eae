package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kncci/jiinue-dashboard/internal/auth"
	"github.com/kncci/jiinue-dashboard/internal/config"
	"github.com/kncci/jiinue-dashboard/internal/participant"
	"github.com/kncci/jiinue-dashboard/internal/sheet"
)

type Server struct {
	Echo        *echo.Echo
	Loader      *sheet.Loader
	AuthService *auth.Service
	Rules       participant.Rules

	// Background refresh job tracking
	jobMu      sync.Mutex
	runningJob *refreshJob
}

type refreshJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Rows      int                `json:"rows,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(cfg *config.Config, loader *sheet.Loader) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := cfg.Server.CORSOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:4200"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	accounts := make([]auth.Account, 0, len(cfg.Operators))
	for _, op := range cfg.Operators {
		accounts = append(accounts, auth.Account{Email: op.Email, PasswordHash: op.PasswordHash})
	}

	s := &Server{
		Echo:        e,
		Loader:      loader,
		AuthService: auth.NewService(accounts),
		Rules:       cfg.ParticipantRules(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.POST("/auth/login", s.handleLogin)

	api.GET("/participants", s.handleListParticipants)
	api.GET("/stats", s.handleStats)
	api.GET("/summary/counties", s.handleCountySummary)

	// Exports carry personal data, so they sit behind operator login.
	exports := api.Group("/export")
	exports.Use(auth.Middleware)
	exports.GET("/participants.csv", s.handleExportParticipants)
	exports.GET("/counties.csv", s.handleExportCounties)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/refresh", s.handleRefresh)
	admin.GET("/job/:id", s.handleJobStatus)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// snapshot loads the current table, falling back to a stale cached snapshot
// when a refresh fails. Only a cold cache surfaces the load failure.
func (s *Server) snapshot(c echo.Context) (participant.Table, error) {
	table, err := s.Loader.Load(c.Request().Context())
	if err == nil {
		return table, nil
	}
	if cached, fetchedAt, ok := s.Loader.Cached(); ok {
		c.Response().Header().Set("X-Snapshot-Stale", fetchedAt.UTC().Format(time.RFC3339))
		log.Printf("serving stale snapshot from %s: %v", fetchedAt.UTC().Format(time.RFC3339), err)
		return cached, nil
	}
	return nil, err
}

func (s *Server) handleListParticipants(c echo.Context) error {
	table, err := s.snapshot(c)
	if err != nil {
		return sourceUnavailable(c, err)
	}

	matched := s.applyQuery(c, table)

	limit := 200
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	page := matched
	if offset > len(page) {
		page = participant.Table{}
	} else {
		page = page[offset:]
	}
	if len(page) > limit {
		page = page[:limit]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":        len(matched),
		"participants": page,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	table, err := s.snapshot(c)
	if err != nil {
		return sourceUnavailable(c, err)
	}
	stats := participant.Summarize(s.applyQuery(c, table), s.Rules)
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCountySummary(c echo.Context) error {
	table, err := s.snapshot(c)
	if err != nil {
		return sourceUnavailable(c, err)
	}
	rows := participant.SummarizeCounties(s.applyQuery(c, table), s.Rules)
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleExportParticipants(c echo.Context) error {
	table, err := s.snapshot(c)
	if err != nil {
		return sourceUnavailable(c, err)
	}
	matched := s.applyQuery(c, table)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="filtered_participants.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return participant.WriteParticipantsCSV(c.Response(), matched)
}

func (s *Server) handleExportCounties(c echo.Context) error {
	table, err := s.snapshot(c)
	if err != nil {
		return sourceUnavailable(c, err)
	}
	rows := participant.SummarizeCounties(s.applyQuery(c, table), s.Rules)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="county_summary.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return participant.WriteCountySummaryCSV(c.Response(), rows)
}

// applyQuery resolves lookup and filter query params against a table. A
// national ID query takes precedence over a phone query; when an ID is given
// the phone param is ignored entirely. Lookup and filters do not combine: a
// lookup is already an exact-match view.
func (s *Server) applyQuery(c echo.Context, table participant.Table) participant.Table {
	if id := strings.TrimSpace(c.QueryParam("national_id")); id != "" {
		return table.FindByNationalID(id)
	}
	if phone := strings.TrimSpace(c.QueryParam("phone")); phone != "" {
		return table.FindByPhone(phone)
	}
	return parseFilter(c).Apply(table)
}

func parseFilter(c echo.Context) participant.Filter {
	f := participant.Filter{
		Sector: strings.TrimSpace(c.QueryParam("sector")),
		Gender: strings.TrimSpace(c.QueryParam("gender")),
	}
	if v := c.QueryParam("county"); v != "" {
		f.Counties = splitCSV(v)
	}
	if t, ok := parseDateParam(c.QueryParam("from")); ok {
		f.From = &t
	}
	if t, ok := parseDateParam(c.QueryParam("to")); ok {
		// Inclusive range: a bare date as upper bound covers its whole day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f
}

func parseDateParam(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func sourceUnavailable(c echo.Context, err error) error {
	if errors.Is(err, sheet.ErrSourceUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func (s *Server) handleRefresh(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":  "A refresh job is already running",
			"job_id": job.ID,
		})
	}

	// context.WithoutCancel detaches from HTTP lifecycle but preserves
	// trace values. We add our own timeout for safety.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 2*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &refreshJob{
		ID:        jobID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	// Runs in a background goroutine; the handler returns 202 immediately.
	go func() {
		defer jobCancel()

		table, err := s.Loader.Refresh(jobCtx)
		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.Printf("[refresh-job %s] failed: %v", jobID, err)
			return
		}
		job.Status = "completed"
		job.Rows = len(table)
		log.Printf("[refresh-job %s] completed: rows=%d", jobID, len(table))
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Refresh job started",
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Status == "completed" {
		resp["rows"] = job.Rows
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// Check X-Admin-Secret header or Bearer token
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
