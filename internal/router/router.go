// Package router holds lovary's route table and the navigation guard.
//
// Navigation always goes through Router.Push. Token presence is read from
// storage on every call, the guard decides whether to redirect, and
// subscribers (the terminal UI) are told which route is now current.
package router

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lovary/lovary/internal/prefs"
)

// Route paths.
const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathDiary    = "/diary"
	PathProfile  = "/profile"
)

// Route is one entry of the static route table.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

var routes = []Route{
	{Name: "home", Path: PathHome},
	{Name: "login", Path: PathLogin},
	{Name: "register", Path: PathRegister},
	{Name: "diary", Path: PathDiary, RequiresAuth: true},
	{Name: "profile", Path: PathProfile, RequiresAuth: true},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup resolves path to its route. Trailing slashes are ignored.
func Lookup(path string) (Route, bool) {
	clean := strings.TrimSpace(path)
	if len(clean) > 1 {
		clean = strings.TrimRight(clean, "/")
	}
	for _, r := range routes {
		if r.Path == clean {
			return r, true
		}
	}
	return Route{}, false
}

// Guard decides whether navigation to `to` may proceed. When it may not,
// redirect names the path to go to instead.
func Guard(to Route, authenticated bool) (redirect string, allowed bool) {
	if to.RequiresAuth && !authenticated {
		return PathLogin, false
	}
	if to.Path == PathLogin && authenticated {
		return PathDiary, false
	}
	return "", true
}

// IsAuthRoute reports whether path is one of the unauthenticated entry
// screens where a 401 must not trigger a redirect.
func IsAuthRoute(path string) bool {
	return path == PathLogin || path == PathRegister
}

// maxRedirects bounds guard chains. The table above needs at most one hop.
const maxRedirects = 4

// Router tracks the current route.
type Router struct {
	storage prefs.Storage
	logger  *zap.Logger

	mu          sync.Mutex
	current     Route
	subscribers []func(Route)
}

// New returns a Router positioned at the landing route. Nothing is
// published until the first Push.
func New(storage prefs.Storage, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	home, _ := Lookup(PathHome)
	return &Router{storage: storage, logger: logger, current: home}
}

// Subscribe registers fn to receive every completed navigation.
func (r *Router) Subscribe(fn func(Route)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

// Push navigates to path, applying the guard. Unknown paths resolve to the
// landing route.
func (r *Router) Push(path string) {
	target, ok := Lookup(path)
	if !ok {
		r.logger.Debug("unknown route", zap.String("path", path))
		target, _ = Lookup(PathHome)
	}

	for i := 0; i < maxRedirects; i++ {
		redirect, allowed := Guard(target, prefs.Token(r.storage) != "")
		if allowed {
			break
		}
		r.logger.Debug("route redirected",
			zap.String("from", target.Path),
			zap.String("to", redirect),
		)
		target, _ = Lookup(redirect)
	}

	r.publish(target)
}

// Enter makes path the current route without consulting the guard. The CLI
// uses it to run login and register from their own screens, where a 401
// means bad credentials rather than an expired session.
func (r *Router) Enter(path string) {
	target, ok := Lookup(path)
	if !ok {
		target, _ = Lookup(PathHome)
	}
	r.publish(target)
}

func (r *Router) publish(target Route) {
	r.mu.Lock()
	r.current = target
	subs := make([]func(Route), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(target)
	}
}

// Current returns the current route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CurrentPath returns the current route's path.
func (r *Router) CurrentPath() string {
	return r.Current().Path
}
