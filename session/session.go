package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"buskport-cli/model"
	"buskport-cli/store"
)

const fileName = "session.json"

type SavedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the persisted login state.
type Session struct {
	UserID     string        `json:"user_id"`
	LoggedIn   bool          `json:"logged_in"`
	Cookies    []SavedCookie `json:"cookies,omitempty"`
	LoggedInAt time.Time     `json:"logged_in_at,omitempty"`
}

// Authenticator performs the login call; *service.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) error
}

// Context is the auth context for one program run. It is created by Load,
// shared by the API client (through Jar) and the UI, and torn down by Logout.
type Context struct {
	mu      sync.RWMutex
	base    *url.URL
	path    string
	jar     *Jar
	current Session
	logger  *zap.Logger
}

// Load restores the session saved for baseURL. Each API base has its own
// session file. A missing or unreadable file yields a logged-out context.
func Load(baseURL string, logger *zap.Logger) (*Context, error) {
	path, err := store.ConfigPath(store.Scoped(baseURL, fileName))
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, baseURL, logger)
}

func LoadFrom(path string, baseURL string, logger *zap.Logger) (*Context, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api base %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Context{base: base, path: path, jar: NewJar(), logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	var saved Session
	if err := json.Unmarshal(data, &saved); err != nil {
		logger.Warn("ignoring corrupt session file", zap.String("path", path), zap.Error(err))
		return c, nil
	}
	if saved.LoggedIn {
		c.current = saved
		c.jar.SetCookies(base, toHTTPCookies(saved.Cookies))
	}
	return c, nil
}

// Jar is the cookie jar the API client must use.
func (c *Context) Jar() http.CookieJar {
	return c.jar
}

func (c *Context) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.LoggedIn
}

func (c *Context) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.UserID
}

func (c *Context) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Login authenticates through auth and persists the resulting cookies.
func (c *Context) Login(ctx context.Context, auth Authenticator, userID string, password string) error {
	userID = strings.TrimSpace(userID)
	if err := auth.Login(ctx, model.LoginRequest{UserId: userID, Password: password}); err != nil {
		return err
	}

	var saved []SavedCookie
	for _, cookie := range c.jar.Cookies(c.base) {
		saved = append(saved, SavedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	next := Session{UserID: userID, LoggedIn: true, Cookies: saved, LoggedInAt: time.Now()}

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()

	if err := store.WriteJSON(c.path, next, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.logger.Info("logged in", zap.String("user", userID), zap.Int("cookies", len(saved)))
	return nil
}

// Logout clears the jar and deletes the session file.
func (c *Context) Logout() error {
	c.jar.Reset()
	c.mu.Lock()
	user := c.current.UserID
	c.current = Session{}
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	c.logger.Info("logged out", zap.String("user", user))
	return nil
}

func toHTTPCookies(saved []SavedCookie) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		if s.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	return cookies
}
