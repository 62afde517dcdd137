package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/checkin"
	"classroll/internal/config"
	"classroll/internal/metrics"
	"classroll/internal/schedule"
	"classroll/internal/store"
)

const dateLayout = "2006-01-02"

func registerRoutes(r *gin.Engine, cfg config.App, expander *schedule.Expander, schedSvc *schedule.Service, attSvc *attendance.Service, validator *checkin.Validator) {
	v1 := r.Group("/v1", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	staff := v1.Group("", auth.RequireRole(auth.RoleInstructor))

	staff.POST("/schedules", func(c *gin.Context) {
		var req struct {
			CourseID     string `json:"course_id" binding:"required"`
			InstructorID string `json:"instructor_id" binding:"required"`
			DayOfWeek    *int   `json:"day_of_week" binding:"required"`
			StartTime    string `json:"start_time" binding:"required"`
			EndTime      string `json:"end_time" binding:"required"`
			Room         string `json:"room"`
			SessionType  string `json:"session_type"`
			IsRecurring  *bool  `json:"is_recurring"`
			Notes        string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		recurring := true
		if req.IsRecurring != nil {
			recurring = *req.IsRecurring
		}
		sched, err := schedSvc.CreateSchedule(c.Request.Context(), schedule.RecurringSchedule{
			CourseID:     req.CourseID,
			InstructorID: req.InstructorID,
			DayOfWeek:    *req.DayOfWeek,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Room:         req.Room,
			SessionType:  req.SessionType,
			IsRecurring:  recurring,
			Notes:        req.Notes,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, sched)
	})

	staff.GET("/schedules/:id", func(c *gin.Context) {
		sched, err := schedSvc.GetSchedule(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sched)
	})

	staff.PUT("/schedules/:id", func(c *gin.Context) {
		var req struct {
			DayOfWeek   *int   `json:"day_of_week" binding:"required"`
			StartTime   string `json:"start_time" binding:"required"`
			EndTime     string `json:"end_time" binding:"required"`
			Room        string `json:"room"`
			SessionType string `json:"session_type"`
			IsRecurring *bool  `json:"is_recurring"`
			Notes       string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		existing, err := schedSvc.GetSchedule(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		existing.DayOfWeek = *req.DayOfWeek
		existing.StartTime = req.StartTime
		existing.EndTime = req.EndTime
		existing.Room = req.Room
		if req.SessionType != "" {
			existing.SessionType = req.SessionType
		}
		if req.IsRecurring != nil {
			existing.IsRecurring = *req.IsRecurring
		}
		existing.Notes = req.Notes
		if err := schedSvc.UpdateSchedule(c.Request.Context(), *existing); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, existing)
	})

	staff.DELETE("/schedules/:id", func(c *gin.Context) {
		if err := schedSvc.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	staff.POST("/schedules/:id/expand", func(c *gin.Context) {
		var req struct {
			StartDate string `json:"start_date" binding:"required"`
			EndDate   string `json:"end_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad start_date, want YYYY-MM-DD"})
			return
		}
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad end_date, want YYYY-MM-DD"})
			return
		}
		created, err := expander.Expand(c.Request.Context(), c.Param("id"), start, end)
		if err != nil {
			fail(c, err)
			return
		}
		metrics.SessionsMaterialized.Add(float64(created))
		c.JSON(http.StatusOK, gin.H{"sessions_created": created})
	})

	staff.POST("/sessions", func(c *gin.Context) {
		var req struct {
			CourseID     string `json:"course_id" binding:"required"`
			InstructorID string `json:"instructor_id" binding:"required"`
			Date         string `json:"date" binding:"required"`
			StartTime    string `json:"start_time" binding:"required"`
			EndTime      string `json:"end_time" binding:"required"`
			Room         string `json:"room"`
			SessionType  string `json:"session_type"`
			Notes        string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad date, want YYYY-MM-DD"})
			return
		}
		sess, err := schedSvc.CreateAdHocSession(c.Request.Context(), schedule.Session{
			CourseID:     req.CourseID,
			InstructorID: req.InstructorID,
			Date:         date,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Room:         req.Room,
			SessionType:  req.SessionType,
			Notes:        req.Notes,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, sess)
	})

	v1.GET("/sessions", func(c *gin.Context) {
		f := schedule.SessionFilter{
			CourseID:     c.Query("course_id"),
			InstructorID: c.Query("instructor_id"),
		}
		if v := c.Query("from"); v != "" {
			if t, err := time.Parse(dateLayout, v); err == nil {
				f.From = t
			}
		}
		if v := c.Query("to"); v != "" {
			if t, err := time.Parse(dateLayout, v); err == nil {
				f.To = t
			}
		}
		sessions, err := schedSvc.ListSessions(c.Request.Context(), f)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	})

	v1.GET("/sessions/:id", func(c *gin.Context) {
		sess, err := schedSvc.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	})

	staff.PATCH("/sessions/:id/status", func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := schedSvc.TransitionSession(c.Request.Context(), c.Param("id"), schedule.SessionStatus(req.Status)); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	})

	staff.POST("/sessions/:id/token", func(c *gin.Context) {
		var req struct {
			ValidityMinutes int `json:"validity_minutes"`
		}
		_ = c.ShouldBindJSON(&req) // body optional, validity falls back to the configured default
		claims, _ := auth.FromContext(c)
		instructorID := claims.Subject
		if claims.Role == auth.RoleAdmin {
			instructorID = "" // admins may issue for any session
		}
		validity := time.Duration(req.ValidityMinutes) * time.Minute
		if validity <= 0 {
			validity = cfg.CheckInValidity
		}
		token, expiresAt, err := validator.IssueToken(c.Request.Context(), c.Param("id"), instructorID, validity)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": expiresAt.Unix()})
	})

	v1.POST("/checkins", func(c *gin.Context) {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)
		rec, err := validator.CheckIn(c.Request.Context(), req.Token, claims.Subject)
		if err != nil {
			metrics.CheckIns.WithLabelValues(checkInOutcome(err)).Inc()
			fail(c, err)
			return
		}
		metrics.CheckIns.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"attendance_id": rec.ID,
			"status":        rec.Status,
			"date":          rec.Date.Format(dateLayout),
		})
	})

	staff.POST("/sessions/:id/attendance", func(c *gin.Context) {
		var req struct {
			Marks []attendance.Mark `json:"marks" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)
		written, err := attSvc.BulkMark(c.Request.Context(), c.Param("id"), claims.Subject, req.Marks)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": written})
	})

	staff.GET("/sessions/:id/attendance", func(c *gin.Context) {
		recs, err := attSvc.BySession(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": recs})
	})

	staff.PATCH("/attendance/:id", func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
			Notes  string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := attSvc.Correct(c.Request.Context(), c.Param("id"), attendance.Status(req.Status), req.Notes)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	v1.GET("/attendance", func(c *gin.Context) {
		studentID := c.Query("student_id")
		claims, _ := auth.FromContext(c)
		if claims.Role == auth.RoleStudent {
			studentID = claims.Subject // students only see their own records
		}
		courseID := c.Query("course_id")
		if studentID == "" || courseID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id and course_id required"})
			return
		}
		from, to := time.Time{}, time.Now().UTC()
		if v := c.Query("from"); v != "" {
			if t, err := time.Parse(dateLayout, v); err == nil {
				from = t
			}
		}
		if v := c.Query("to"); v != "" {
			if t, err := time.Parse(dateLayout, v); err == nil {
				to = t
			}
		}
		recs, err := attSvc.ByStudent(c.Request.Context(), studentID, courseID, from, to)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": recs})
	})
}

// fail maps domain errors to HTTP statuses. Every kind keeps its own message;
// nothing is collapsed into a generic failure.
func fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound),
		errors.Is(err, schedule.ErrSessionNotFound),
		errors.Is(err, attendance.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkin.ErrExpiredToken):
		status = http.StatusGone
	case errors.Is(err, checkin.ErrInvalidSession):
		status = http.StatusNotFound
	case errors.Is(err, checkin.ErrNotEnrolled),
		errors.Is(err, checkin.ErrNotSessionOwner):
		status = http.StatusForbidden
	case errors.Is(err, checkin.ErrSessionNotOpen),
		errors.Is(err, schedule.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func checkInOutcome(err error) string {
	switch {
	case errors.Is(err, checkin.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, checkin.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, checkin.ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, checkin.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, store.ErrUnavailable):
		return "store_error"
	}
	return "error"
}
