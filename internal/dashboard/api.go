package dashboard

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/audit"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/session"
)

const defaultAuditLimit = 200

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func handleState(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

func handleTrains(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sess.Snapshot().Trains)
	}
}

func handleAlerts(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sess.Snapshot().Alerts)
	}
}

func handleWeather(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sess.Snapshot().Weather)
	}
}

// auditEntries returns the live trail, or the archived one when the
// request asks for source=archive and an archive is configured.
func auditEntries(c *gin.Context, sess *session.Session, archive *audit.Archive) ([]models.AuditLogEntry, bool) {
	if c.Query("source") != "archive" {
		return sess.Snapshot().AuditLog, true
	}
	if archive == nil {
		errorJSON(c, http.StatusBadRequest, "no audit archive configured")
		return nil, false
	}
	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorJSON(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return nil, false
		}
		limit = n
	}
	entries, err := archive.List(limit)
	if err != nil {
		log.Printf("dashboard: list audit archive: %v", err)
		errorJSON(c, http.StatusInternalServerError, "failed to read audit archive")
		return nil, false
	}
	return entries, true
}

func handleAudit(sess *session.Session, archive *audit.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, ok := auditEntries(c, sess, archive)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func handleAuditCSV(sess *session.Session, archive *audit.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, ok := auditEntries(c, sess, archive)
		if !ok {
			return
		}
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="audit.csv"`)
		c.Status(http.StatusOK)
		if err := audit.ExportCSV(c.Writer, entries); err != nil {
			log.Printf("dashboard: export audit csv: %v", err)
		}
	}
}

func handleAcknowledge(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ok, err := sess.Acknowledge(c.Request.Context(), id)
		switch {
		case errors.Is(err, session.ErrBusy):
			errorJSON(c, http.StatusConflict, "a recommendation is already being generated")
			return
		case err != nil:
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		case !ok:
			errorJSON(c, http.StatusNotFound, "alert "+id+" not found")
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot().Recommendation)
	}
}

func handleResolve(sess *session.Session, approved bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sess.Resolve(c.Request.Context(), approved) {
			errorJSON(c, http.StatusNotFound, "no active recommendation")
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

func handleDismiss(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess.Dismiss()
		c.Status(http.StatusNoContent)
	}
}

type whatIfRequest struct {
	Query string `json:"query" form:"query"`
}

func handleWhatIf(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req whatIfRequest
		if err := c.ShouldBind(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		resp, err := sess.WhatIf(c.Request.Context(), req.Query)
		switch {
		case errors.Is(err, session.ErrEmptyQuery):
			errorJSON(c, http.StatusBadRequest, "query is required")
			return
		case errors.Is(err, session.ErrBusy):
			errorJSON(c, http.StatusConflict, "a what-if query is already running")
			return
		case err != nil:
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"query": req.Query, "response": resp})
	}
}

func handleScenarios(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"scenarios": session.Scenarios,
			"current":   sess.Snapshot().Scenario,
		})
	}
}

type analyzeRequest struct {
	Scenario string `json:"scenario" form:"scenario"`
}

func handleAnalyze(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBind(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		analysis, err := sess.AnalyzeScenario(c.Request.Context(), req.Scenario)
		switch {
		case errors.Is(err, session.ErrEmptyScenario):
			errorJSON(c, http.StatusBadRequest, "scenario is required")
			return
		case errors.Is(err, session.ErrBusy):
			errorJSON(c, http.StatusConflict, "an analysis is already running")
			return
		case errors.Is(err, session.ErrAnalysisFailed):
			errorJSON(c, http.StatusBadGateway, session.MsgAnalysisFailed)
			return
		case err != nil:
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, analysis)
	}
}

type scenarioRunView struct {
	ID         uint              `json:"id"`
	Scenario   string            `json:"scenario"`
	Strategies []models.Strategy `json:"strategies"`
	CreatedAt  int64             `json:"createdAt"`
}

func handleScenarioHistory(archive *audit.Archive) gin.HandlerFunc {
	return func(c *gin.Context) {
		if archive == nil {
			c.JSON(http.StatusOK, []scenarioRunView{})
			return
		}
		runs, err := archive.ScenarioRuns(20)
		if err != nil {
			log.Printf("dashboard: list scenario runs: %v", err)
			errorJSON(c, http.StatusInternalServerError, "failed to read scenario history")
			return
		}
		out := make([]scenarioRunView, 0, len(runs))
		for _, r := range runs {
			a, err := audit.DecodeRun(r)
			if err != nil {
				log.Printf("dashboard: %v", err)
				continue
			}
			out = append(out, scenarioRunView{ID: r.ID, Scenario: r.Scenario, Strategies: a.Strategies, CreatedAt: r.CreatedAt.UnixMilli()})
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleKPIs() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, StaticKPIs())
	}
}
