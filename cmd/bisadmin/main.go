package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abrezinsky/bisadmin/internal/app"
	"github.com/abrezinsky/bisadmin/internal/auth"
	"github.com/abrezinsky/bisadmin/internal/commands"
	"github.com/abrezinsky/bisadmin/internal/config"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/pkg/bis"
	"github.com/abrezinsky/bisadmin/pkg/nominatim"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

// showBanner prints the startup logo
func showBanner() {
	const width = 44
	border := strings.Repeat("═", width)
	logo := []string{
		"   ____ ___ ____               _           _",
		"  | __ )_ _/ ___|   __ _  __| |_ __ ___ (_)_ __",
		"  |  _ \\| |\\___ \\  / _` |/ _` | '_ ` _ \\| | '_ \\",
		"  | |_) | | ___) || (_| | (_| | | | | | | | | | |",
		"  |____/___|____/  \\__,_|\\__,_|_| |_| |_|_|_| |_|",
	}
	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s%s%s\n", yellow, line, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// options are the command line overrides of the config file
type options struct {
	configPath string
	port       int
	dbPath     string
	adminPw    string
	logLevel   string
	logFormat  string
	noBanner   bool
	noKeyboard bool
}

// apply copies the flags the user actually set onto cfg
func (o options) apply(cfg *config.Config, set map[string]bool) {
	if set["port"] {
		cfg.Port = o.port
	}
	if set["db"] {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = o.dbPath
	}
	if set["adminpw"] {
		cfg.Admin.Password = o.adminPw
		cfg.Admin.PasswordHash = ""
	}
	if set["loglevel"] {
		cfg.Log.Level = o.logLevel
	}
	if set["logformat"] {
		cfg.Log.Format = o.logFormat
	}
}

// adminSecret picks the hash, then the plain password, then a generated one
func adminSecret(cfg config.AdminConfig) (secret string, generated bool) {
	switch {
	case cfg.PasswordHash != "":
		return cfg.PasswordHash, false
	case cfg.Password != "":
		return cfg.Password, false
	default:
		return auth.GeneratePassword(), true
	}
}

// uiURL is the first concrete CORS origin, i.e. the admin front-end
func uiURL(origins []string) string {
	for _, o := range origins {
		if o != "" && o != "*" {
			return o
		}
	}
	return ""
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file")
	flag.IntVar(&opts.port, "port", 8081, "HTTP server port")
	flag.StringVar(&opts.dbPath, "db", "bisadmin.db", "SQLite database path")
	flag.StringVar(&opts.adminPw, "adminpw", "", "Admin password (auto-generated if not set)")
	flag.StringVar(&opts.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFormat, "logformat", "text", "Log format (text, json)")
	flag.BoolVar(&opts.noBanner, "nobanner", false, "Skip the startup logo")
	flag.BoolVar(&opts.noKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `bisadmin - BIS administration back-end

Usage:
  bisadmin [options]
  bisadmin hash-password [-insecure-unmask-password]

Options:
  -config str     YAML config file
  -port int       HTTP server port (default 8081)
  -db string      SQLite database path (default "bisadmin.db")
  -adminpw str    Admin password (auto-generated if not set)
  -loglevel str   Log level: debug, info, warn, error (default "info")
  -logformat str  Log format: text, json (default "text")
  -nobanner       Skip the startup logo
  -nokeyboard     Disable keyboard shortcuts
  -version        Show version and exit
  -help           Show this help message

Environment:
  BIS_API_URL, BIS_API_TOKEN, BIS_PUBLIC_WEB_URL, BIS_ONLINE_LOCATION_ID
  BISADMIN_DATABASE_URL (switches to PostgreSQL), BISADMIN_PORT,
  BISADMIN_LOG_LEVEL, BISADMIN_ADMIN_PASSWORD_HASH

Keyboard Shortcuts (when enabled):
  a              Open admin UI in browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help

Examples:
  bisadmin                                # Run on port 8081 with bisadmin.db
  bisadmin -config /etc/bisadmin.yaml     # Use a config file
  BISADMIN_DATABASE_URL=postgres://... bisadmin -nokeyboard

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("bisadmin %s\n", version)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sFailed to load config: %v%s\n", red, err, reset)
		return 1
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	opts.apply(&cfg, set)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%sInvalid configuration: %v%s\n", red, err, reset)
		return 1
	}

	if !opts.noBanner {
		showBanner()
	}

	appLog := logger.NewWithOptions(os.Stderr, logger.ParseFormat(cfg.Log.Format), logger.ParseLevel(cfg.Log.Level))

	secret, generated := adminSecret(cfg.Admin)
	adminAuth := auth.New(secret)
	if generated {
		appLog.Info("Admin password", "password", secret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := app.OpenRepository(ctx, cfg.Database)
	if err != nil {
		appLog.Error("Failed to open database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}

	client := bis.NewHTTPClient(cfg.BIS.APIURL, appLog)
	client.SetCacheTTL(cfg.BIS.CacheTTL)
	geocoder := nominatim.NewClient(cfg.Nominatim.URL, cfg.Nominatim.UserAgent, appLog)

	a, err := app.New(ctx, appLog, cfg, repo, client, geocoder, adminAuth)
	if err != nil {
		repo.Close()
		appLog.Error("Failed to initialize application", "error", err)
		return 1
	}

	if !opts.noKeyboard {
		restore, err := rawInput()
		if err != nil {
			appLog.Debug("Keyboard shortcuts unavailable", "error", err)
		} else {
			defer restore()
			printKeyboardHelp(os.Stdout)
			go newKeyboard(uiURL(cfg.CORS.AllowedOrigins), appLog, os.Stdout, stop).listen(os.Stdin)
		}
	} else {
		fmt.Printf("%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	}

	if err := a.Run(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
		appLog.Error("Server error", "error", err)
		return 1
	}
	return 0
}
