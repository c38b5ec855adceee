// internal/component/services.go
package component

import (
	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/config"
	"github.com/yanizio/adept-auth/internal/middleware"
	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/session"
	"github.com/yanizio/adept-auth/internal/view"
)

// Services exposes process-wide resources to Components during Init.
// Every field is safe for concurrent use.
type Services struct {
	Config   *config.Config
	Gate     *auth.Gate
	Sessions *session.Store
	Sync     *auth.Synchronizer
	Provider *provider.Client
	Profiles profile.Store
	Views    *view.Engine
	Limiter  *middleware.RateLimiter
	Log      *zap.SugaredLogger
}
