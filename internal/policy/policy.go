// Package policy maps actor roles onto export paths. Resolution is pure:
// no I/O, no ambient state.
package policy

import (
	"fmt"

	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

// ExportPath is how an actor is allowed to export data.
type ExportPath int

const (
	// PathDirect exports immediately with the data already at hand.
	PathDirect ExportPath = iota
	// PathOTPGated requires a valid export token obtained via OTP re-verification.
	PathOTPGated
	// PathRequestApproval requires filing an export request and waiting for approval.
	PathRequestApproval
)

func (p ExportPath) String() string {
	switch p {
	case PathDirect:
		return "direct"
	case PathOTPGated:
		return "otp-gated"
	case PathRequestApproval:
		return "request-approval"
	default:
		return fmt.Sprintf("ExportPath(%d)", int(p))
	}
}

// Resolve returns the single export path for a role. Roles without a wired
// path fail loudly with errs.ErrConfiguration rather than defaulting;
// school-admin in particular has no defined path and stays an explicit gap
// until product decides otherwise.
func Resolve(role model.Role) (ExportPath, error) {
	switch role {
	case model.RoleSuperAdmin:
		return PathDirect, nil
	case model.RoleManager:
		return PathOTPGated, nil
	case model.RoleFieldWorker:
		return PathRequestApproval, nil
	case model.RoleSchoolAdmin:
		return 0, fmt.Errorf("%w: role %q has no export path", errs.ErrConfiguration, role)
	default:
		return 0, fmt.Errorf("%w: unrecognized role %q", errs.ErrConfiguration, role)
	}
}
