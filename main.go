package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dealsweep/authapi"
	"dealsweep/config"
	"dealsweep/httputil"
	"dealsweep/logging"
	"dealsweep/scheduler"
	"dealsweep/scraper"
	"dealsweep/storage"
)

var (
	scrapeNow    = flag.Bool("scrape", false, "Run one export and exit")
	doLogin      = flag.Bool("login", false, "Log in against the backend")
	doRegister   = flag.Bool("register", false, "Register a new backend account")
	doLogout     = flag.Bool("logout", false, "Clear the stored session")
	captureToken = flag.Bool("capture-token", false, "Capture the site token via the browser")
	showStatus   = flag.Bool("status", false, "Show session and last-run status")

	email     = flag.String("email", "", "Account email for -login/-register")
	password  = flag.String("password", "", "Account password for -login/-register")
	firstName = flag.String("first", "", "First name for -register")
	lastName  = flag.String("last", "", "Last name for -register")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open state database: %v", err)
	}
	defer store.Close()

	clients := httputil.NewClients(&cfg.Proxy)
	app := &App{
		cfg:     cfg,
		store:   store,
		clients: clients,
		backend: authapi.NewClient(cfg.Backend.BaseURL, clients.Backend),
		session: scraper.NewSession(),
	}

	ctx := context.Background()

	switch {
	case *doLogin:
		if err := app.Login(ctx, *email, *password); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	case *doRegister:
		if err := app.Register(ctx, *firstName, *lastName, *email, *password); err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
	case *doLogout:
		if err := app.Logout(); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
	case *captureToken:
		if err := app.CaptureSiteToken(); err != nil {
			log.Fatalf("Token capture failed: %v", err)
		}
	case *showStatus:
		if err := app.Status(ctx); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
	case *scrapeNow:
		stopOnSignal(app)
		if err := app.Scrape(ctx); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	default:
		runDaemon(ctx, cfg, app)
	}
}

// runDaemon repeats export runs on the configured schedule until
// interrupted.
func runDaemon(ctx context.Context, cfg *config.Config, app *App) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(&cfg.Scheduler, func(ctx context.Context) error {
		return app.Scrape(ctx)
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	app.session.RequestStop()
	sched.Stop()
}

// stopOnSignal maps the first interrupt to a cooperative stop, so a ^C
// mid-run still produces a partial export. A second interrupt exits hard.
func stopOnSignal(app *App) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Stop requested; finishing the current page...")
		app.session.RequestStop()
		<-sigCh
		os.Exit(1)
	}()
}
