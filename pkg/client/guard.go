package client

import "context"

// Well-known frontend routes used by the guards.
const (
	SetupPath = "/setup"
	LoginPath = "/login"
)

type setupChecker interface {
	SetupStatus(ctx context.Context) (*SetupStatus, error)
}

// SetupGuard decides whether navigation must be redirected to first-run
// setup. It re-checks on every resolution; nothing is cached across calls.
type SetupGuard struct {
	api setupChecker
}

// NewSetupGuard constructs a SetupGuard over the facade.
func NewSetupGuard(api setupChecker) *SetupGuard {
	return &SetupGuard{api: api}
}

// Resolve returns the path to redirect to, or "" when navigation may
// proceed. A transport failure fails open so a transient outage cannot
// lock users out.
func (g *SetupGuard) Resolve(ctx context.Context, currentPath string) string {
	status, err := g.api.SetupStatus(ctx)
	if err != nil {
		return ""
	}
	if status.SetupRequired && currentPath != SetupPath {
		return SetupPath
	}
	if !status.SetupRequired && currentPath == SetupPath {
		return LoginPath
	}
	return ""
}

// LayoutGuard gates the authenticated shell on session presence. It checks
// presence only; an expired token still passes and fails later at the API.
type LayoutGuard struct {
	store Store
}

// NewLayoutGuard constructs a LayoutGuard over the session store.
func NewLayoutGuard(store Store) *LayoutGuard {
	return &LayoutGuard{store: store}
}

// Resolve returns /login when either the token or the user snapshot is
// missing, and "" otherwise.
func (g *LayoutGuard) Resolve() string {
	if g.store.Token() == "" || g.store.User() == nil {
		return LoginPath
	}
	return ""
}
