// Package server exposes the liveness HTTP surface and the periodic
// self-ping loop.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arslanov-m/macdscan/internal/logger"
	"github.com/arslanov-m/macdscan/internal/models"
)

// SignalReader lists recently recorded signals.
type SignalReader interface {
	RecentSignals(n int) ([]models.Signal, error)
}

// Router builds the HTTP surface: a liveness root for uptime monitors and
// a read-only listing of recent signals.
func Router(signals SignalReader) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/", ok)
	r.HEAD("/", ok)

	r.GET("/signals", func(c *gin.Context) {
		if signals == nil {
			c.JSON(http.StatusOK, []models.Signal{})
			return
		}
		recent, err := signals.RecentSignals(50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, recent)
	})

	return r
}

// Ping runs the periodic self-health-check until ctx is cancelled. It is a
// no-op when url is empty.
func Ping(ctx context.Context, url string, interval, timeout time.Duration) {
	if url == "" {
		return
	}
	client := &http.Client{Timeout: timeout}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				logger.Warn("Self-ping failed: %v", err)
				continue
			}
			resp.Body.Close()
			logger.Debug("Self-pinged %s (%d)", url, resp.StatusCode)
		}
	}
}
