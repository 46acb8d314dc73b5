package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// Jar is a cookie jar that can be emptied in place, so an http.Client built
// around it stays valid across logout.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
}

func NewJar() *Jar {
	inner, _ := cookiejar.New(nil)
	return &Jar{inner: inner}
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Reset drops every cookie.
func (j *Jar) Reset() {
	inner, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
}
