package role

import (
	"errors"
	"strings"
)

type Role string

const (
	Employee Role = "Employee"
	Manager  Role = "Manager"
	HR       Role = "HR"
	VP       Role = "VP"
	CMD      Role = "CMD"
)

var ErrUnknownRole = errors.New("unknown role")

// ordered lowest to highest
var hierarchy = []Role{Employee, Manager, HR, VP, CMD}

var levels = map[Role]int{
	Employee: 1,
	Manager:  2,
	HR:       3,
	VP:       4,
	CMD:      5,
}

// feedbackGivers maps a target role to the role allowed to give it official
// feedback. Manager and HR both report to VP, so this is a lookup and not
// level arithmetic.
var feedbackGivers = map[Role]Role{
	Employee: Manager,
	Manager:  VP,
	HR:       VP,
	VP:       CMD,
}

func All() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy)
	return out
}

func Parse(s string) (Role, error) {
	for _, r := range hierarchy {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

func (r Role) Valid() bool {
	_, ok := levels[r]
	return ok
}

// Level returns 0 for unknown roles.
func (r Role) Level() int {
	return levels[r]
}

func (r Role) String() string {
	return string(r)
}

func CanModify(actor, target Role) bool {
	if !actor.Valid() || !target.Valid() {
		return false
	}
	return actor.Level() > target.Level()
}

func ViewableRoles(r Role) []Role {
	return filter(func(other Role) bool { return other.Level() <= r.Level() })
}

func ModifiableRoles(r Role) []Role {
	return filter(func(other Role) bool { return other.Level() < r.Level() })
}

func FeedbackGiverRole(target Role) (Role, bool) {
	giver, ok := feedbackGivers[target]
	return giver, ok
}

func Contains(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func filter(keep func(Role) bool) []Role {
	var out []Role
	for _, r := range hierarchy {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
