// Package platform resolves the identity of the running host: operating
// system, architecture, machine name, user and environment. The resulting
// Context is what filter annotations embedded in source names are matched
// against. It is computed once per process and can be overridden in tests.
package platform

import (
	"os"
	"os/user"
	"runtime"
	"strings"
	"sync"
)

// EnvVar is the environment variable consulted for the "env" context key
// when the root configuration does not set one.
const EnvVar = "DOTSMITH_ENV"

// Context holds the host identity used for filter evaluation. All values
// are matched case-insensitively. Env may be empty, in which case any
// filter referencing it fails. Extra carries custom keys supplied by the
// root configuration.
type Context struct {
	OS          string
	Arch        string
	Machine     string
	User        string
	Env         string
	RawPlatform string
	Extra       map[string]string
}

var (
	mu      sync.Mutex
	current *Context
)

// Current returns the process-wide Context, resolving it on first use.
func Current() *Context {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = resolve()
	}
	return current
}

// Override replaces the process-wide Context. Intended for tests and for
// callers that thread an explicit context through the pipeline.
func Override(ctx *Context) {
	mu.Lock()
	defer mu.Unlock()
	current = ctx
}

// Reset clears the cached Context so the next Current call re-resolves it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = nil
}

// resolve computes the host context from the running process
func resolve() *Context {
	ctx := &Context{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		RawPlatform: runtime.GOOS + "/" + runtime.GOARCH,
		Env:         os.Getenv(EnvVar),
		Extra:       make(map[string]string),
	}

	if host, err := os.Hostname(); err == nil {
		ctx.Machine = shortHostname(host)
	}

	if u, err := user.Current(); err == nil {
		ctx.User = u.Username
	} else if name := os.Getenv("USER"); name != "" {
		ctx.User = name
	}

	return ctx
}

// shortHostname strips the domain part from a fully qualified hostname
func shortHostname(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

// Lookup returns the context value for a filter key. Keys are
// case-insensitive. Unknown keys and the empty env return ok=false,
// which makes the referencing filter fail rather than error.
func (c *Context) Lookup(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "os":
		return c.OS, c.OS != ""
	case "arch":
		return c.Arch, c.Arch != ""
	case "machine", "hostname":
		return c.Machine, c.Machine != ""
	case "user":
		return c.User, c.User != ""
	case "env":
		return c.Env, c.Env != ""
	case "platform":
		return c.RawPlatform, c.RawPlatform != ""
	}
	if c.Extra != nil {
		if v, ok := c.Extra[strings.ToLower(key)]; ok {
			return v, true
		}
	}
	return "", false
}

// WithExtra returns a copy of the context with the given custom keys
// merged in. Keys are lowercased; existing extras are preserved unless
// overridden.
func (c *Context) WithExtra(extra map[string]string) *Context {
	clone := *c
	clone.Extra = make(map[string]string, len(c.Extra)+len(extra))
	for k, v := range c.Extra {
		clone.Extra[k] = v
	}
	for k, v := range extra {
		clone.Extra[strings.ToLower(k)] = v
	}
	return &clone
}
