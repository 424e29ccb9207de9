package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dealsweep/authapi"
	"dealsweep/browser"
	"dealsweep/config"
	"dealsweep/dealmachine"
	"dealsweep/export"
	"dealsweep/httputil"
	"dealsweep/models"
	"dealsweep/scraper"
	"dealsweep/storage"
)

// App wires the stores and clients behind the CLI commands and owns the
// process-wide scrape session.
type App struct {
	cfg     *config.Config
	store   *storage.Store
	clients *httputil.Clients
	backend *authapi.Client
	session *scraper.Session
}

func (a *App) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("both -email and -password are required")
	}

	token, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}

	user, err := a.backend.Verify(ctx, token)
	if err != nil {
		return fmt.Errorf("login verification: %w", err)
	}
	if err := a.store.SaveSession(token, user); err != nil {
		return err
	}

	log.Printf("Logged in as %s %s", user.FirstName, user.LastName)
	if !user.IsApproved {
		log.Println("Account is pending admin approval; exports are disabled until then")
	}
	return nil
}

func (a *App) Register(ctx context.Context, firstName, lastName, email, password string) error {
	if firstName == "" || lastName == "" || email == "" || password == "" {
		return errors.New("-first, -last, -email and -password are all required")
	}
	if err := a.backend.Register(ctx, firstName, lastName, email, password); err != nil {
		return err
	}
	log.Println("Registered. An admin has to approve the account before exports work.")
	return nil
}

func (a *App) Logout() error {
	if err := a.store.ClearSession(); err != nil {
		return err
	}
	log.Println("Session cleared")
	return nil
}

func (a *App) CaptureSiteToken() error {
	capture := browser.NewTokenCapture(&a.cfg.Browser)
	token, err := capture.Capture(a.cfg.Target.AppURL)
	if err != nil {
		return err
	}
	if err := a.store.SaveSiteToken(token); err != nil {
		return err
	}
	log.Println("Site token captured and stored")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	jwt, err := a.store.JWT()
	if err != nil {
		return err
	}
	if jwt == "" {
		log.Println("Not logged in")
	} else if user, err := a.backend.Verify(ctx, jwt); err == nil {
		approval := "approved"
		if !user.IsApproved {
			approval = "pending approval"
		}
		log.Printf("Logged in as %s %s (%s)", user.FirstName, user.LastName, approval)
	} else if errors.Is(err, authapi.ErrUnauthorized) {
		a.store.ClearSession()
		log.Println("Stored session expired; log in again")
	} else {
		log.Printf("Backend unreachable: %v", err)
	}

	siteToken, err := a.store.SiteToken()
	if err != nil {
		return err
	}
	if siteToken == "" {
		log.Println("No site token; run -capture-token")
	} else {
		log.Println("Site token present")
	}

	last, err := a.store.LastRun()
	if err != nil {
		return err
	}
	if last == nil {
		log.Println("No runs yet")
	} else {
		log.Printf("Last run %s: %s, %d pages, %d rows", last.StartedAt.Format(time.RFC3339), last.Status, last.PagesWalked, last.RowsFound)
	}
	return nil
}

// Scrape performs one full export run: auth checks, the paginated walk,
// the export file, the backend session log. Exactly one user-facing
// outcome line per terminal state.
func (a *App) Scrape(ctx context.Context) error {
	jwt, siteToken, err := a.requireTokens(ctx)
	if err != nil {
		return err
	}

	client := dealmachine.NewClient(&a.cfg.Target, siteToken, a.clients.Leads)
	runner := &scraper.Runner{
		Source:        client,
		Session:       a.session,
		PageSize:      a.cfg.Target.PageSize,
		PageDelay:     a.cfg.PageDelay(),
		AllowAllTypes: a.cfg.Target.AllowAllPhoneTypes,
		OnProgress: func(p models.Progress) {
			log.Printf("Progress: page %d, %d numbers", p.Page, p.Count)
		},
	}

	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := a.store.CreateRun(run); err != nil {
		log.Printf("Warning: could not record run: %v", err)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		// rejected start: no state change, no session log
		return err
	}

	return a.finishRun(ctx, jwt, run, result)
}

// requireTokens enforces the preconditions of a run: a verified backend
// session and a captured site token.
func (a *App) requireTokens(ctx context.Context) (jwt, siteToken string, err error) {
	jwt, err = a.store.JWT()
	if err != nil {
		return "", "", err
	}
	if jwt == "" {
		return "", "", errors.New("not logged in; run -login first")
	}

	user, err := a.backend.Verify(ctx, jwt)
	switch {
	case errors.Is(err, authapi.ErrUnauthorized):
		a.store.ClearSession()
		return "", "", errors.New("session expired; log in again")
	case err != nil:
		log.Printf("Warning: could not verify session (%v), continuing", err)
	case !user.IsApproved:
		return "", "", errors.New("account is pending admin approval")
	}

	siteToken, err = a.store.SiteToken()
	if err != nil {
		return "", "", err
	}
	if siteToken == "" {
		return "", "", errors.New("no site token stored; run -capture-token first")
	}
	return jwt, siteToken, nil
}

func (a *App) finishRun(ctx context.Context, jwt string, run *models.ScrapeRun, result *scraper.Result) error {
	now := time.Now()
	run.FinishedAt = &now
	run.PagesWalked = result.Pages
	run.RowsFound = result.Total

	switch result.State {
	case scraper.StateFailed:
		run.Status = models.RunStatusFailed
		if result.Err != nil {
			run.Error = result.Err.Error()
		}
	case scraper.StateStopped:
		run.Status = models.RunStatusStopped
	default:
		run.Status = models.RunStatusCompleted
	}
	if err := a.store.UpdateRun(run); err != nil {
		log.Printf("Warning: could not update run record: %v", err)
	}

	if result.State == scraper.StateFailed {
		a.logSession(ctx, jwt, 0, models.RunStatusFailed)
		log.Printf("Export failed: %v", result.Err)
		return result.Err
	}

	if result.Total == 0 {
		// the run itself succeeded; reported as a failure for the operator
		a.logSession(ctx, jwt, 0, models.RunStatusCompleted)
		log.Println("Export finished: no phone numbers found in your leads")
		return nil
	}

	path, err := export.WriteFile(a.cfg.Export.Dir, result.Rows, now, result.StoppedEarly)
	if err != nil {
		a.logSession(ctx, jwt, 0, models.RunStatusFailed)
		return err
	}

	if a.cfg.Export.S3.Bucket != "" {
		a.uploadExport(ctx, path)
	}

	status := models.RunStatusCompleted
	if result.StoppedEarly {
		status = models.RunStatusStopped
	}
	a.logSession(ctx, jwt, result.Total, status)

	if result.StoppedEarly {
		log.Printf("Stopped early: saved %d numbers to %s", result.Total, path)
	} else {
		log.Printf("Export complete: %d numbers saved to %s", result.Total, path)
	}
	return nil
}

// logSession reports the run to the backend; failures are logged, never
// fatal.
func (a *App) logSession(ctx context.Context, jwt string, count int, status models.RunStatus) {
	if err := a.backend.LogSession(ctx, jwt, count, status); err != nil {
		log.Printf("Warning: session log failed: %v", err)
	}
}

func (a *App) uploadExport(ctx context.Context, path string) {
	uploader, err := storage.NewExportUploader(ctx, a.cfg.Export.S3)
	if err != nil {
		log.Printf("Warning: S3 uploader unavailable: %v", err)
		return
	}
	key, err := uploader.UploadFile(ctx, path)
	if err != nil {
		log.Printf("Warning: S3 upload failed: %v", err)
		return
	}
	log.Printf("Uploaded export to s3://%s/%s", a.cfg.Export.S3.Bucket, key)
}
