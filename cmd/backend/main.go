package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	bibliography.Logger = Logger
}

// @title bibview Backend API
// @version 1.0
// @description Bibliography checker API - uploads PDFs, renders their pages and checks each bibliography entry

// @contact.name API Support
// @contact.url https://github.com/drummonds/bibview

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name Documents
// @tag.description Upload, page rendering and deletion

// @tag.name Analysis
// @tag.description Bibliography entries and analysis progress

// @tag.name Jobs
// @tag.description Background job tracking

// @tag.name Admin
// @tag.description Application information

// @tag.name Health
// @tag.description Service health check

func main() {
	port := flag.String("port", "8000", "Port to run backend server on")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🔧  bibview Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API-only mode (no frontend)")
	fmt.Println("• All endpoints under /api/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println("• Database will be destroyed on exit")
		fmt.Println()
	}

	repo, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Unable to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = engine.APIErrorHandler(e.DefaultHTTPErrorHandler)

	serverHandler, err := engine.NewServerHandler(serverConfig, repo, e)
	if err != nil {
		Logger.Error("Unable to set up backend", "error", err)
		os.Exit(1)
	}
	defer serverHandler.Close()

	Logger.Info("Initializing backend services...")
	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	scheduler := serverHandler.InitializeSchedules()
	defer scheduler.Stop()
	Logger.Info("Backend services initialized")

	// CORS configuration - allow frontend from different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	if *port != "8000" {
		serverConfig.ListenAddrPort = *port
	}

	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\n✅  Backend API Server running on %s\n", addr)
	fmt.Printf("📡  API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("🏥  Health check: http://%s/api/health\n\n", addr)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
