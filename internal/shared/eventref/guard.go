package eventref

import (
	"context"
	"fmt"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
)

// Authorize checks that the session may act on the event.
// Admins pass; staff and engineers must be assigned; teachers and parents
// must be linked by email.
func Authorize(ctx context.Context, access Access, event *Event, id httpkit.Identity) error {
	if id == nil || !id.IsAuthenticated() {
		return apperr.Unauthorized("unauthorized")
	}

	var (
		ok  bool
		err error
	)
	switch id.Role() {
	case httpkit.RoleAdmin:
		return nil
	case httpkit.RoleStaff, httpkit.RoleEngineer:
		ok, err = access.IsStaffAssigned(ctx, event.ID, id.SubjectID(), id.Role())
	case httpkit.RoleTeacher:
		ok, err = access.IsTeacher(ctx, event.ID, id.Email())
	case httpkit.RoleParent:
		ok, err = access.IsParent(ctx, event.ID, id.Email())
	default:
		return apperr.Forbidden("unknown role")
	}
	if err != nil {
		return fmt.Errorf("check event access: %w", err)
	}
	if !ok {
		return apperr.Forbidden(fmt.Sprintf("%s is not assigned to this event", id.Role()))
	}
	return nil
}
