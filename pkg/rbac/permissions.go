package rbac

import (
	"fmt"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Permission names an operation class guarded by role
type Permission string

const (
	PermBookOwn            Permission = "appointment:book_own"
	PermBookForPatient     Permission = "appointment:book_for_patient"
	PermManageAppointments Permission = "appointment:manage"
	PermExportAppointments Permission = "appointment:export"
	PermRecordPayment      Permission = "payment:record"
	PermVerifyPayments     Permission = "payment:verify"
	PermManageResults      Permission = "result:manage"
	PermViewAllRecords     Permission = "record:view_all"
	PermManageCatalog      Permission = "catalog:manage"
	PermManageSettings     Permission = "settings:manage"
	PermViewAudit          Permission = "audit:view"
)

var staffPermissions = []Permission{
	PermBookForPatient,
	PermManageAppointments,
	PermExportAppointments,
	PermRecordPayment,
	PermVerifyPayments,
	PermManageResults,
	PermViewAllRecords,
}

// PermissionsFor returns the permission set of a role. Every role in the
// closed set must be handled here.
func PermissionsFor(role types.UserRole) ([]Permission, error) {
	switch role {
	case types.RolePatient:
		return []Permission{PermBookOwn, PermRecordPayment}, nil
	case types.RoleTechnician, types.RoleDoctor, types.RoleReceptionist:
		return staffPermissions, nil
	case types.RoleAdmin:
		perms := append([]Permission{}, staffPermissions...)
		return append(perms, PermManageCatalog, PermManageSettings, PermViewAudit), nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// Can reports whether role holds perm. Unknown roles hold nothing.
func Can(role types.UserRole, perm Permission) bool {
	perms, err := PermissionsFor(role)
	if err != nil {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// Require returns an access denied error unless the actor holds perm.
func Require(actor types.Actor, perm Permission) error {
	if Can(actor.Role, perm) {
		return nil
	}
	return types.NewAccessDeniedError(fmt.Sprintf("role %q may not perform %s", actor.Role, perm))
}

// RequireOwnerOrStaff allows staff with view_all, or the record's owner.
func RequireOwnerOrStaff(actor types.Actor, ownerID string) error {
	if Can(actor.Role, PermViewAllRecords) || (actor.UserID != "" && actor.UserID == ownerID) {
		return nil
	}
	return types.NewAccessDeniedError("you do not have access to this record")
}
