package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

// RoleAuthorization gates routes on the caller's position in the hierarchy.
type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{logger: logger}
}

func (ra *RoleAuthorization) check(allowed func(role.Role) bool, label string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.logger.Warn("authorization check failed: user not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !allowed(user.Role) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", user.ID,
					"role", user.Role,
					"required", label)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinRole admits callers at or above min.
func (ra *RoleAuthorization) RequireMinRole(min role.Role) func(http.Handler) http.Handler {
	return ra.check(func(r role.Role) bool {
		return r.Level() >= min.Level()
	}, ">= "+min.String())
}

// RequireRoles admits callers holding one of roles.
func (ra *RoleAuthorization) RequireRoles(roles ...role.Role) func(http.Handler) http.Handler {
	label := ""
	for i, r := range roles {
		if i > 0 {
			label += ","
		}
		label += r.String()
	}
	return ra.check(func(r role.Role) bool {
		return role.Contains(roles, r)
	}, label)
}

// RequireCanManageUsers admits anyone who outranks at least one role.
func (ra *RoleAuthorization) RequireCanManageUsers() func(http.Handler) http.Handler {
	return ra.check(func(r role.Role) bool {
		return len(role.ModifiableRoles(r)) > 0
	}, "outranks someone")
}
