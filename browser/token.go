package browser

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"dealsweep/config"
)

// TokenCapture opens the leads web app in a persistent browser profile and
// reads the site token the app keeps in localStorage. The profile survives
// between captures, so signing in is a one-time step.
type TokenCapture struct {
	cfg *config.BrowserConfig
	pw  *playwright.Playwright
	ctx playwright.BrowserContext
}

func NewTokenCapture(cfg *config.BrowserConfig) *TokenCapture {
	return &TokenCapture{cfg: cfg}
}

const (
	loginPollInterval = 2 * time.Second
	loginWait         = 3 * time.Minute
)

// Capture navigates to appURL and polls localStorage for the token. When
// the app still shows its login form, the operator is asked to sign in in
// the opened window and polling continues until loginWait runs out.
func (t *TokenCapture) Capture(appURL string) (string, error) {
	if err := t.launch(); err != nil {
		return "", err
	}
	defer t.close()

	page, err := t.ctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	if _, err := page.Goto(appURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", appURL, err)
	}

	asked := false
	deadline := time.Now().Add(loginWait)
	for time.Now().Before(deadline) {
		token := readLocalToken(page)
		if token != "" {
			return token, nil
		}

		if !asked && showsLoginForm(page) {
			log.Println("Not signed in yet; log in in the browser window, the token will be picked up automatically")
			asked = true
		}
		time.Sleep(loginPollInterval)
	}

	return "", fmt.Errorf("no site token after %s; sign in and retry", loginWait)
}

func (t *TokenCapture) launch() error {
	var err error
	t.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	t.ctx, err = t.pw.Chromium.LaunchPersistentContext(t.cfg.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(t.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		t.pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

func (t *TokenCapture) close() {
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	if t.pw != nil {
		t.pw.Stop()
		t.pw = nil
	}
}

func readLocalToken(page playwright.Page) string {
	value, err := page.Evaluate(`() => localStorage.getItem("token") || ""`)
	if err != nil {
		return ""
	}
	token, _ := value.(string)
	return strings.TrimSpace(token)
}

// showsLoginForm checks the rendered page for a password field, which the
// leads app only renders on its sign-in screen.
func showsLoginForm(page playwright.Page) bool {
	html, err := page.Content()
	if err != nil {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(`input[type="password"]`).Length() > 0
}
