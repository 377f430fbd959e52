package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pinscout/config"
	"github.com/use-agent/pinscout/models"
	"github.com/ysmood/gson"
)

// idleWindow is how long the page must stay quiet to count as settled.
const idleWindow = 500 * time.Millisecond

// RodLauncher starts one dedicated Chromium process per Launch call.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher returns a Launcher backed by go-rod.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts a headless browser, opens a single page and applies the
// client identity. Any failure kills whatever was started and returns a
// LAUNCH_FAILURE error.
func (r *RodLauncher) Launch(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.NoSandbox {
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}
	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		// The process never started, so Cleanup would block on its exit
		// channel forever. Remove the profile directory directly.
		_ = os.RemoveAll(l.Get(flags.UserDataDir))
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	sess := &rodSession{launcher: l}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		_ = sess.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to connect to browser", err)
	}
	sess.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = sess.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to open page", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      r.cfg.UserAgent,
		AcceptLanguage: r.cfg.AcceptLanguage,
	}); err != nil {
		_ = sess.Close()
		return nil, models.NewScrapeError(models.ErrCodeLaunchFailure, "failed to set user agent", err)
	}

	// Stealth and headers must be installed before the first navigation.
	if r.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	if r.cfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": r.cfg.AcceptLanguage}),
		}.Call(page)
	}

	sess.router = setupHijack(page, r.cfg.BlockedResourceTypes, r.cfg.BlockAds)
	sess.page = &rodPage{page: page, hijacked: sess.router != nil}
	return sess, nil
}

// rodSession owns the launcher process, the browser connection and the page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	router   *rod.HijackRouter
	page     *rodPage

	once     sync.Once
	closeErr error
}

func (s *rodSession) Page() Page { return s.page }

// Close stops request interception, closes the browser and kills the
// process. Only the first call does any work.
func (s *rodSession) Close() error {
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

// rodPage adapts *rod.Page to Page. Each call binds ctx so rod's internal
// retries stop at the caller's deadline.
type rodPage struct {
	page     *rod.Page
	hijacked bool
}

func (r *rodPage) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)

	// WaitRequestIdle uses the Fetch domain, which conflicts with the hijack
	// router; fall back to DOM stability when requests are being intercepted.
	// The idle listener MUST be registered before Navigate.
	var waitIdle func()
	if !r.hijacked {
		waitIdle = p.WaitRequestIdle(idleWindow, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return err
	}

	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(idleWindow, 0.1); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *rodPage) WaitElement(ctx context.Context, selector string) error {
	_, err := r.page.Context(ctx).Element(selector)
	return err
}

func (r *rodPage) Click(ctx context.Context, selector string) error {
	el, err := r.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (r *rodPage) Type(ctx context.Context, selector, text string) error {
	el, err := r.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

func (r *rodPage) SelectAll(ctx context.Context, selector string) error {
	el, err := r.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.SelectAllText()
}

func (r *rodPage) Press(ctx context.Context, key Key) error {
	k, err := inputKey(key)
	if err != nil {
		return err
	}
	return r.page.Context(ctx).Keyboard.Type(k)
}

// inputKey maps a workflow key to its rod keyboard key.
func inputKey(key Key) (input.Key, error) {
	switch key {
	case KeyEnter:
		return input.Enter, nil
	case KeyBackspace:
		return input.Backspace, nil
	default:
		return 0, fmt.Errorf("unsupported key %d", key)
	}
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
