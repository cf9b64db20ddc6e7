package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

var ErrForbidden = errors.New("forbidden")

// OwnerLookup resolves the owning user and that user's role for a resource.
type OwnerLookup func(ctx context.Context, id int64) (ownerID int64, ownerRole role.Role, err error)

// HierarchyPolicy is a small attribute-based check over the role hierarchy:
// owners act on their own resources, others need the right level.
type HierarchyPolicy struct{}

func (p *HierarchyPolicy) CanView(u *User, ownerID int64, ownerRole role.Role) error {
	if u.ID == ownerID || role.Contains(role.ViewableRoles(u.Role), ownerRole) {
		return nil
	}
	return ErrForbidden
}

func (p *HierarchyPolicy) CanChange(u *User, ownerID int64, ownerRole role.Role) error {
	if u.ID == ownerID || role.CanModify(u.Role, ownerRole) {
		return nil
	}
	return ErrForbidden
}

// CanReview excludes the owner: nobody approves their own goal.
func (p *HierarchyPolicy) CanReview(u *User, ownerID int64, ownerRole role.Role) error {
	if u.ID != ownerID && role.CanModify(u.Role, ownerRole) {
		return nil
	}
	return ErrForbidden
}

// RequireABAC is a generic middleware wrapper that runs an ABAC check function.
func RequireABAC(abac *HierarchyPolicy, check func(a *HierarchyPolicy, u *User, r *http.Request) error) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := check(abac, u, r); err != nil {
				switch {
				case errors.Is(err, ErrForbidden):
					http.Error(w, "forbidden", http.StatusForbidden)
				case errors.Is(err, sql.ErrNoRows):
					http.Error(w, "not found", http.StatusNotFound)
				default:
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GoalOwnerLookup reads a goal's owner and role straight from the database.
func GoalOwnerLookup(db *sqlx.DB) OwnerLookup {
	return func(ctx context.Context, id int64) (int64, role.Role, error) {
		ctx, cancel := internal.WithTimeout(ctx, 0)
		defer cancel()

		var row struct {
			UserID int64  `db:"user_id"`
			Role   string `db:"role"`
		}
		err := db.GetContext(ctx, &row,
			"SELECT g.user_id, u.role FROM goals g JOIN users u ON u.id = g.user_id WHERE g.id = $1", id)
		if err != nil {
			return 0, "", err
		}
		return row.UserID, role.Role(row.Role), nil
	}
}

func requireOnGoal(lookup OwnerLookup, abac *HierarchyPolicy, decide func(*HierarchyPolicy, *User, int64, role.Role) error) func(next http.Handler) http.Handler {
	return RequireABAC(abac, func(a *HierarchyPolicy, u *User, r *http.Request) error {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			return ErrForbidden
		}
		ownerID, ownerRole, err := lookup(r.Context(), id)
		if err != nil {
			return err
		}
		return decide(a, u, ownerID, ownerRole)
	})
}

// RequireCanViewGoal checks the caller may read the goal at {id}.
func RequireCanViewGoal(lookup OwnerLookup, abac *HierarchyPolicy) func(next http.Handler) http.Handler {
	return requireOnGoal(lookup, abac, (*HierarchyPolicy).CanView)
}

// RequireCanChangeGoal checks the caller owns or outranks the owner of {id}.
func RequireCanChangeGoal(lookup OwnerLookup, abac *HierarchyPolicy) func(next http.Handler) http.Handler {
	return requireOnGoal(lookup, abac, (*HierarchyPolicy).CanChange)
}

// RequireCanReviewGoal checks the caller may approve or reject the goal at {id}.
func RequireCanReviewGoal(lookup OwnerLookup, abac *HierarchyPolicy) func(next http.Handler) http.Handler {
	return requireOnGoal(lookup, abac, (*HierarchyPolicy).CanReview)
}
