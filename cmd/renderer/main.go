package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"resumeguru/internal/config"
	"resumeguru/internal/renderer"
)

// The render service runs as its own process: Chromium is heavy and its
// crashes must not take the API server down with it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/preview-resume", func(c *gin.Context) {
		var req struct {
			HTML string `json:"html" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
			return
		}
		document := renderer.BuildPreviewDocument(req.HTML)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(document))
	})

	router.POST("/api/generate-pdf", func(c *gin.Context) {
		var req struct {
			HTML string `json:"html" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
			return
		}

		document := renderer.BuildPreviewDocument(req.HTML)
		pdf, err := renderer.GeneratePDF(c.Request.Context(), document)
		if err != nil {
			log.Printf("generate pdf failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pdf generation failed"})
			return
		}

		c.Header("Content-Disposition", `attachment; filename="resume.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	})

	server := &http.Server{
		Addr:              cfg.RendererAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("render service starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("render service failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("render service shutdown failed: %v", err)
	}
}
