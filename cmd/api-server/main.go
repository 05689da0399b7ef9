package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"jumptoc/internal/auth"
	"jumptoc/internal/chapters"
	"jumptoc/internal/live"
	"jumptoc/internal/runs"
	"jumptoc/internal/series"
	"jumptoc/internal/week"
	"jumptoc/pkg/database"
	"jumptoc/pkg/utils"
)

func main() {
	var (
		httpAddr = flag.String("addr", ":8080", "HTTP listen address")
		tcpAddr  = flag.String("live", ":7070", "TCP live feed listen address")
	)
	flag.Parse()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := live.NewHub()
	router.GET("/ws", live.WSHandler(hub))
	tcpSrv := live.NewServer(*tcpAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Read side (public)
	chapterRepo := chapters.NewRepo(db)
	chapterHandler := chapters.NewHandler(chapterRepo)
	chapterHandler.RegisterRoutes(router.Group("/chapters"))
	chapterHandler.RegisterBatchRoutes(router.Group("/batches"))

	seriesRepo := series.NewRepo(db)
	seriesHandler := series.NewHandler(seriesRepo)
	seriesHandler.RegisterRoutes(router.Group("/series"))

	runRepo := runs.NewRepo(db)
	runHandler := runs.NewHandler(runRepo)
	runHandler.RegisterRoutes(router.Group("/runs"))

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Write side (protected)
	protected := router.Group("/")
	protected.Use(auth.RequireAuth(tokenSvc, authRepo))
	seriesHandler.RegisterProtectedRoutes(protected)

	weekHandler := week.NewHandler(chapterRepo, hub)
	weekHandler.RegisterRoutes(protected.Group("/weeks"))

	httpSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", *httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
