// Package netset binds the ten pipeline roles to network definitions and
// loads a complete, immutable set of models for one processing run.
package netset

import (
	"fmt"
	"strings"
)

// Role identifies the job a network performs in the pixel pipeline
type Role int

const (
	RtosaAann Role = iota
	RtosaRw
	RwIop
	IopRw
	RwKd
	IopUncIop
	IopUncSumIopUncKd
	RwRwNorm
	RtosaTrans
	RtosaRpath

	roleCount
)

// RoleCount is the number of networks in a complete set
const RoleCount = int(roleCount)

var roleNames = [RoleCount]string{
	RtosaAann:         "rtosa_aann",
	RtosaRw:           "rtosa_rw",
	RwIop:             "rw_iop",
	IopRw:             "iop_rw",
	RwKd:              "rw_kd",
	IopUncIop:         "iop_unciop",
	IopUncSumIopUncKd: "iop_uncsumiop_unckd",
	RwRwNorm:          "rw_rwnorm",
	RtosaTrans:        "rtosa_trans",
	RtosaRpath:        "rtosa_rpath",
}

func (r Role) String() string {
	if r < 0 || int(r) >= RoleCount {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Roles lists every role in pipeline order
func Roles() []Role {
	roles := make([]Role, RoleCount)
	for i := range roles {
		roles[i] = Role(i)
	}
	return roles
}

// ParseRole matches a role name case-insensitively
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Role(i), true
		}
	}
	return 0, false
}

// Binding maps every role to a resource name understood by a fetcher
type Binding [RoleCount]string

// Validate reports roles without a resource name
func (b Binding) Validate() error {
	var missing []string
	for i, name := range b {
		if strings.TrimSpace(name) == "" {
			missing = append(missing, Role(i).String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no network bound for roles: %s", strings.Join(missing, ", "))
	}
	return nil
}
