// Package browser drives headless Chrome through go-rod so the logo widgets
// can be run against a real layout engine.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shadowsite/internal/config"
)

// Session describes the public metadata for a tracked page.
type Session struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id,omitempty"`
	URL       string    `json:"url,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionRecord struct {
	meta Session
	page *rod.Page
}

// Config holds browser configuration.
type Config struct {
	// Bin is the Chrome executable; empty lets the launcher find or fetch
	// one.
	Bin string
	// Flags are extra command line switches, "--name=value" or "--name".
	Flags             []string
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	DeviceScaleFactor float64
	NavigationTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		ViewportWidth:     1280,
		ViewportHeight:    800,
		DeviceScaleFactor: 1,
		NavigationTimeout: 30 * time.Second,
	}
}

// FromSiteConfig converts the browser section of site.yaml.
func FromSiteConfig(c *config.Config) Config {
	return Config{
		Bin:               c.Browser.Bin,
		Headless:          c.Browser.Headless,
		ViewportWidth:     c.Browser.ViewportWidth,
		ViewportHeight:    c.Browser.ViewportHeight,
		DeviceScaleFactor: c.Browser.DeviceScaleFactor,
		NavigationTimeout: c.GetBrowserTimeout(),
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1280
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 800
	}
	return c.ViewportHeight
}

// GetDeviceScaleFactor returns the device pixel ratio.
func (c Config) GetDeviceScaleFactor() float64 {
	if c.DeviceScaleFactor <= 0 {
		return 1
	}
	return c.DeviceScaleFactor
}

// GetNavigationTimeout returns the navigation timeout.
func (c Config) GetNavigationTimeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

// ErrNotConnected is returned by operations that need a running browser.
var ErrNotConnected = errors.New("browser not connected")

// Manager owns the Chrome instance and tracks open pages.
type Manager struct {
	cfg        Config
	log        *zap.Logger
	mu         sync.RWMutex
	browser    *rod.Browser
	sessions   map[string]*sessionRecord
	controlURL string
}

// NewManager creates a manager; call Start to launch Chrome.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*sessionRecord),
	}
}

// launchFlags parses "--name=value" switches.
func launchFlags(raw []string) map[flags.Flag][]string {
	out := make(map[flags.Flag][]string, len(raw))
	for _, f := range raw {
		name, val, hasVal := strings.Cut(strings.TrimLeft(f, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			out[flags.Flag(name)] = []string{val}
		} else {
			out[flags.Flag(name)] = nil
		}
	}
	return out
}

// Start launches Chrome and connects to it. Calling Start on a healthy
// connection is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.log.Warn("stale browser connection, relaunching")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
		m.sessions = make(map[string]*sessionRecord)
	}

	launch := launcher.New().Context(ctx).Headless(m.cfg.Headless)
	if m.cfg.Bin != "" {
		launch = launch.Bin(m.cfg.Bin)
	}
	for name, vals := range launchFlags(m.cfg.Flags) {
		launch = launch.Set(name, vals...)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	m.browser = browser
	m.controlURL = controlURL
	m.log.Debug("browser connected", zap.String("control_url", controlURL))
	return nil
}

// ControlURL returns the WebSocket debugger URL.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected returns whether the browser is connected.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// Shutdown closes tracked pages and the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, record := range m.sessions {
		if record.page != nil {
			_ = record.page.Close()
		}
		delete(m.sessions, id)
	}

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	return err
}

// List returns metadata for all open sessions.
func (m *Manager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Session, 0, len(m.sessions))
	for _, record := range m.sessions {
		results = append(results, record.meta)
	}
	return results
}

// Viewport overrides the configured window size for one session.
type Viewport struct {
	Width, Height     int
	DeviceScaleFactor float64
}

// CreateSession opens url in a fresh incognito page at vp, zero fields
// falling back to the configuration, and waits for it to load.
func (m *Manager) CreateSession(ctx context.Context, url string, vp Viewport) (*Session, error) {
	m.mu.RLock()
	browser := m.browser
	m.mu.RUnlock()
	if browser == nil {
		return nil, ErrNotConnected
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if vp.Width == 0 {
		vp.Width = m.cfg.GetViewportWidth()
	}
	if vp.Height == 0 {
		vp.Height = m.cfg.GetViewportHeight()
	}
	if vp.DeviceScaleFactor <= 0 {
		vp.DeviceScaleFactor = m.cfg.GetDeviceScaleFactor()
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: vp.DeviceScaleFactor,
		Mobile:            false,
	}).Call(page); err != nil {
		m.log.Warn("failed to set viewport", zap.Error(err))
	}

	nav := page.Context(ctx).Timeout(m.cfg.GetNavigationTimeout())
	if err := nav.Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("load %s: %w", url, err)
	}

	meta := Session{
		ID:        uuid.NewString(),
		TargetID:  string(page.TargetID),
		URL:       url,
		Width:     vp.Width,
		Height:    vp.Height,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[meta.ID] = &sessionRecord{meta: meta, page: page}
	m.mu.Unlock()
	m.log.Debug("session created", zap.String("id", meta.ID), zap.String("url", url))
	return &meta, nil
}

// CloseSession closes one page.
func (m *Manager) CloseSession(sessionID string) error {
	m.mu.Lock()
	rec, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown session: %s", sessionID)
	}
	return rec.page.Close()
}

// Page returns the underlying Rod page for a session.
func (m *Manager) Page(sessionID string) (*rod.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return rec.page, true
}

// GetSession returns session metadata.
func (m *Manager) GetSession(sessionID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return rec.meta, true
}

// Document returns the dom.Document of a session's page.
func (m *Manager) Document(ctx context.Context, sessionID string) (*Document, error) {
	page, ok := m.Page(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", sessionID)
	}
	return NewDocument(page.Context(ctx), m.log), nil
}

// Screenshot captures a PNG of the session's page.
func (m *Manager) Screenshot(ctx context.Context, sessionID string, fullPage bool) ([]byte, error) {
	page, ok := m.Page(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", sessionID)
	}
	return page.Context(ctx).Screenshot(fullPage, nil)
}
