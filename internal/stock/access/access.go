// internal/stock/access/access.go
package access

import (
	"context"
	"sync"

	apperrors "stock-backoffice/internal/common/errors"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/models"
)

// Permissions guarding stock actions. A manager holds all of them.
const (
	PermissionExport   = "stock.export"
	PermissionMassEdit = "stock.mass_edit"
)

// Loader fetches the permissions of a user.
type Loader interface {
	Get(ctx context.Context, userID string) (*models.Permissions, error)
}

// SubjectFunc names the signed-in user.
type SubjectFunc func() (string, error)

type Snapshot struct {
	Initialized bool
	Role        string
	FullName    string
	Permissions []string
	LastError   error
}

// Access holds the signed-in user's role and permissions. Until they load
// every permission check fails.
type Access struct {
	loader  Loader
	subject SubjectFunc
	logger  logger.Logger

	mu          sync.Mutex
	perms       *models.Permissions
	initialized bool
	lastErr     error
}

func New(loader Loader, subject SubjectFunc, log logger.Logger) *Access {
	return &Access{
		loader:  loader,
		subject: subject,
		logger:  logger.ForComponent(log, "access"),
	}
}

// Initialize loads the permissions once. Later calls return at once after
// a success; a failure is retried on the next call.
func (a *Access) Initialize(ctx context.Context) error {
	a.mu.Lock()
	if a.initialized {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	userID, err := a.subject()
	if err != nil {
		return a.fail(err)
	}
	perms, err := a.loader.Get(ctx, userID)
	if err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	a.perms = perms
	a.initialized = true
	a.lastErr = nil
	a.mu.Unlock()
	return nil
}

func (a *Access) fail(err error) error {
	a.logger.Warn("permissions unavailable", map[string]interface{}{"error": err})
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	return err
}

// Reset forgets the loaded permissions.
func (a *Access) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.perms = nil
	a.initialized = false
	a.lastErr = nil
}

func (a *Access) IsManager() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.perms.IsManager()
}

// Can reports whether the user is a manager or holds permission.
func (a *Access) Can(permission string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.perms.IsManager() || a.perms.Has(permission)
}

// Require loads the permissions if needed and returns a FORBIDDEN error
// unless the user may perform permission.
func (a *Access) Require(ctx context.Context, permission string) error {
	if err := a.Initialize(ctx); err != nil {
		a.logger.Warn("denying action without permissions", map[string]interface{}{"permission": permission})
		return apperrors.NewPermissionDeniedError(permission)
	}
	if !a.Can(permission) {
		return apperrors.NewPermissionDeniedError(permission)
	}
	return nil
}

func (a *Access) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := Snapshot{Initialized: a.initialized, LastError: a.lastErr, Permissions: []string{}}
	if a.perms != nil {
		snap.Role = a.perms.User.Role
		snap.FullName = a.perms.User.FullName
		snap.Permissions = append(snap.Permissions, a.perms.Permissions...)
	}
	return snap
}
