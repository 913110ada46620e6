package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP     string
	ListenAddrPort   string
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string `json:"-"`
	DatabaseDbname   string
	DatabaseSslmode  string
	UploadPath       string // absolute path to the upload folder
	PDFRenderer      string // "pdfium" or "fitz"
	RenderDPI        int
	PageMaxWidth     int // rendered pages wider than this are scaled down, 0 disables
	DOIBaseURL       string
	CrossrefBaseURL  string
	ContactEmail     string
	JobRetentionDays int
	CleanupInterval  int // minutes
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	RecentDocumentCount int
	PollIntervalSeconds int
	ServerAPIURL        string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func loadEnvFiles(files ...string) {
	// missing files are fine, the environment alone is enough
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	loadEnvFiles(".env", "config.env")

	logger := setupLogging()
	Logger = logger

	cfg := ServerConfig{}

	// Server configuration
	cfg.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	cfg.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Database configuration
	cfg.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	cfg.DatabaseHost = getEnv("DATABASE_HOST", "localhost")
	cfg.DatabasePort = getEnv("DATABASE_PORT", "5432")
	cfg.DatabaseUser = getEnv("DATABASE_USER", "bibview")
	cfg.DatabasePassword = getEnv("DATABASE_PASSWORD", "")
	cfg.DatabaseDbname = getEnv("DATABASE_NAME", "databases/bibview.sqlite")
	cfg.DatabaseSslmode = getEnv("DATABASE_SSLMODE", "disable")

	logger.Info("Database configuration loaded", "type", cfg.DatabaseType)

	// Upload storage
	uploadDir := filepath.ToSlash(getEnv("UPLOAD_PATH", "uploads"))
	uploadDirAbs, err := filepath.Abs(uploadDir)
	if err != nil {
		logger.Error("Failed creating absolute path for upload directory", "error", err)
		uploadDirAbs = uploadDir
	}
	cfg.UploadPath = uploadDirAbs

	// Rendering
	cfg.PDFRenderer = getEnv("PDF_RENDERER", "pdfium")
	cfg.RenderDPI = getEnvInt("RENDER_DPI", 108)
	cfg.PageMaxWidth = getEnvInt("PAGE_MAX_WIDTH", 0)

	// Bibliography checking
	cfg.DOIBaseURL = getEnv("DOI_BASE_URL", "https://doi.org")
	cfg.CrossrefBaseURL = getEnv("CROSSREF_BASE_URL", "https://api.crossref.org/v1")
	cfg.ContactEmail = getEnv("CONTACT_EMAIL", "")

	// Housekeeping
	cfg.JobRetentionDays = getEnvInt("JOB_RETENTION_DAYS", 7)
	cfg.CleanupInterval = getEnvInt("CLEANUP_INTERVAL", 60)

	cfg.FrontEndConfig = loadFrontEndConfig("")

	fmt.Println("\n========================================")
	fmt.Println("   bibview - Bibliography Checker")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", cfg.ListenAddrIP, cfg.ListenAddrPort)
	if cfg.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "bibview.log"))

	logger.Info("Server configuration loaded",
		"uploadPath", cfg.UploadPath,
		"renderer", cfg.PDFRenderer,
		"dpi", cfg.RenderDPI)

	return cfg, logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	loadEnvFiles(".env", "config.env", "frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := loadFrontEndConfig("http://localhost:8000")

	logger.Info("Frontend configuration loaded",
		"apiURL", frontendConfig.ServerAPIURL,
		"pollInterval", frontendConfig.PollIntervalSeconds)

	return frontendConfig, logger
}

func loadFrontEndConfig(defaultAPIURL string) FrontEndConfig {
	return FrontEndConfig{
		RecentDocumentCount: getEnvInt("RECENT_DOCUMENT_COUNT", 10),
		PollIntervalSeconds: getEnvInt("POLL_INTERVAL", 2),
		ServerAPIURL:        getEnv("SERVER_API_URL", defaultAPIURL),
	}
}

// FrontendScript is served as /config.js and read by the web app. apiURL is
// empty when the API is reachable on the page's own origin.
func FrontendScript(apiURL string, cfg FrontEndConfig) string {
	return fmt.Sprintf(`
// bibview Frontend Configuration
window.bibviewConfig = {
    apiURL: %q,
    recentDocumentCount: %d,
    pollInterval: %d
};
`, apiURL, cfg.RecentDocumentCount, cfg.PollIntervalSeconds)
}

// UserAgent identifies bibview to the services it queries
func UserAgent(contact string) string {
	ua := "bibview/" + Version + " (+https://github.com/drummonds/bibview"
	if contact != "" {
		ua += "; mailto:" + contact
	}
	return ua + ")"
}

// Version can be set at build time with -ldflags
var Version = "dev"

// Verbose reports whether SQL query logging was requested
func Verbose() bool {
	return getEnvBool("DATABASE_VERBOSE", false)
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "bibview.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// checkDirectory makes sure path exists and is a writable directory
func checkDirectory(path string, logger *slog.Logger) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Cannot create directory", "path", path, "error", err)
		return err
	}
	probe, err := os.CreateTemp(path, ".write-check-*")
	if err != nil {
		logger.Error("Directory is not writable", "path", path, "error", err)
		return err
	}
	probe.Close()
	os.Remove(probe.Name())
	logger.Debug("Directory is writable", "path", path)
	return nil
}

// CheckUploadPath verifies the upload folder can be used
func (c ServerConfig) CheckUploadPath() error {
	logger := Logger
	if logger == nil {
		logger = slog.Default()
	}
	return checkDirectory(c.UploadPath, logger)
}
