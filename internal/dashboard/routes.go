package dashboard

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/audit"
	"github.com/zulandar/signalbox/internal/session"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, sess *session.Session, archive *audit.Archive) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Pages.
	router.GET("/", handlePage(sess, "dashboard"))
	router.GET("/kpis", handlePage(sess, "kpis"))
	router.GET("/scenarios", handlePage(sess, "scenarios"))

	// Partials re-rendered by the page on every state event.
	router.GET("/partials/network", handlePartial(sess, "network"))
	router.GET("/partials/alerts", handlePartial(sess, "alerts"))
	router.GET("/partials/recommendation", handlePartial(sess, "recommendation"))
	router.GET("/partials/audit", handlePartial(sess, "audit"))
	router.GET("/partials/scenario", handlePartial(sess, "scenario"))

	api := router.Group("/api")
	api.GET("/state", handleState(sess))
	api.GET("/trains", handleTrains(sess))
	api.GET("/alerts", handleAlerts(sess))
	api.GET("/weather", handleWeather(sess))
	api.GET("/audit", handleAudit(sess, archive))
	api.GET("/audit.csv", handleAuditCSV(sess, archive))
	api.POST("/alerts/:id/acknowledge", handleAcknowledge(sess))
	api.POST("/recommendation/approve", handleResolve(sess, true))
	api.POST("/recommendation/override", handleResolve(sess, false))
	api.DELETE("/recommendation", handleDismiss(sess))
	api.POST("/recommendation/whatif", handleWhatIf(sess))
	api.GET("/scenarios", handleScenarios(sess))
	api.POST("/scenarios/analyze", handleAnalyze(sess))
	api.GET("/scenarios/history", handleScenarioHistory(archive))
	api.GET("/kpis", handleKPIs())

	// Live feeds.
	api.GET("/events", handleSSE(sess))
	api.GET("/live", handleLive(sess))
}

func handlePage(sess *session.Session, page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "layout.html", newPageData(page, sess.Snapshot(), time.Now()))
	}
}

func handlePartial(sess *session.Session, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name+".html", newPageData(name, sess.Snapshot(), time.Now()))
	}
}
