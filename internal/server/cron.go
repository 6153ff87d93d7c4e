package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RunReminderDispatch triggers one dispatch pass over all tenants. It is
// meant for an external cron caller and is guarded by a bearer secret.
func (s *Server) RunReminderDispatch(c *gin.Context) {
	if !s.cronAuthorized(c) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	report, err := s.dispatcher.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("processed %d reminders across %d tenants (%d failed)", report.Sent+report.Failed, report.Tenants, report.Failed),
		"as_of":   report.AsOf,
		"tenants": report.Tenants,
		"sent":    report.Sent,
		"failed":  report.Failed,
		"results": report.Entries,
	})
}

func (s *Server) cronAuthorized(c *gin.Context) bool {
	if s.cfg.CronSecret == "" {
		// Open mode; a warning is logged at startup.
		return true
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.cfg.CronSecret)) == 1
}
