package main

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine"
	"github.com/drummonds/bibview/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

// wasmDir holds app.wasm and wasm_exec.js, built with
// GOARCH=wasm GOOS=js go build -o web/app.wasm ./cmd/webapp
const wasmDir = "web"

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API and the web viewer on one port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, logger := config.SetupServer()
			injectGlobals(logger) //inject the logger into all of the packages
			if port != "" {
				serverConfig.ListenAddrPort = port
			}
			return serve(serverConfig)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides SERVER_PORT)")
	return cmd
}

func serve(serverConfig config.ServerConfig) error {
	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Database will be destroyed on exit")
		fmt.Println("• Uploaded PDFs stay in the upload folder")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	e, serverHandler, err := newServer(serverConfig, db)
	if err != nil {
		return err
	}
	defer serverHandler.Close()

	scheduler, err := startBackground(serverHandler)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	return startWithRetry(e, serverConfig)
}

// newServer assembles the combined server: API routes, the go-app handler
// and its static assets
func newServer(serverConfig config.ServerConfig, db database.Repository) (*echo.Echo, *engine.ServerHandler, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = engine.APIErrorHandler(e.DefaultHTTPErrorHandler)

	serverHandler, err := engine.NewServerHandler(serverConfig, db, e)
	if err != nil {
		return nil, nil, err
	}

	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	e.GET("/wasm_exec.js", func(c echo.Context) error {
		return c.File(wasmDir + "/wasm_exec.js")
	})

	// Register go-app specific resources
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))
	e.Static("/web", wasmDir)

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	// The API is on the same origin, so the app uses relative URLs
	e.GET("/config.js", func(c echo.Context) error {
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, config.FrontendScript("", serverConfig.FrontEndConfig))
	})

	// Serve go-app handler for all other routes (must be last)
	// The WASM app handles its own client-side routing and 404s via NotFoundPage component
	e.Any("/*", echo.WrapHandler(appHandler))

	return e, serverHandler, nil
}

// startBackground checks the environment and starts the scheduled jobs
func startBackground(serverHandler *engine.ServerHandler) (*cron.Cron, error) {
	Logger.Info("Running startup checks")
	if err := serverHandler.StartupChecks(); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}
	return serverHandler.InitializeSchedules(), nil
}

// startWithRetry tries the next port up when the configured one is taken
func startWithRetry(e *echo.Echo, serverConfig config.ServerConfig) error {
	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	const maxRetries = 5
	startPort := serverConfig.ListenAddrPort

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		err := e.Start(addr)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		if !isAddressInUse(err) {
			return fmt.Errorf("starting server: %w", err)
		}

		Logger.Warn("Port already in use, trying next port",
			"port", serverConfig.ListenAddrPort,
			"attempt", attempt+1,
			"max_attempts", maxRetries)
		portNum := 0
		fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
		serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum+1)
	}
	return fmt.Errorf("no free port between %s and %s", startPort, serverConfig.ListenAddrPort)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
