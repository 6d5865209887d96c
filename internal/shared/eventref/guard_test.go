package eventref

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
)

type fakeAccess struct {
	staff   map[string]bool
	teacher map[string]bool
}

func (f fakeAccess) IsStaffAssigned(_ context.Context, _ uuid.UUID, staffID, role string) (bool, error) {
	return f.staff[role+":"+staffID], nil
}

func (f fakeAccess) IsTeacher(_ context.Context, _ uuid.UUID, email string) (bool, error) {
	return f.teacher[email], nil
}

func (f fakeAccess) IsParent(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func TestAuthorize(t *testing.T) {
	access := fakeAccess{
		staff:   map[string]bool{"engineer:eng-1": true},
		teacher: map[string]bool{"lehrer@schule.de": true},
	}
	event := &Event{ID: uuid.New()}
	ctx := context.Background()

	cases := []struct {
		name string
		id   httpkit.Identity
		kind apperr.Kind
	}{
		{"admin", httpkit.NewIdentity("a", httpkit.RoleAdmin, ""), apperr.KindUnknown},
		{"assigned engineer", httpkit.NewIdentity("eng-1", httpkit.RoleEngineer, ""), apperr.KindUnknown},
		{"engineer id as staff", httpkit.NewIdentity("eng-1", httpkit.RoleStaff, ""), apperr.KindForbidden},
		{"unassigned staff", httpkit.NewIdentity("s-9", httpkit.RoleStaff, ""), apperr.KindForbidden},
		{"linked teacher", httpkit.NewIdentity("t", httpkit.RoleTeacher, "lehrer@schule.de"), apperr.KindUnknown},
		{"parent", httpkit.NewIdentity("p", httpkit.RoleParent, "x@y.de"), apperr.KindForbidden},
		{"no session", nil, apperr.KindUnauthorized},
	}

	for _, tc := range cases {
		err := Authorize(ctx, access, event, tc.id)
		if tc.kind == apperr.KindUnknown {
			if err != nil {
				t.Errorf("%s: expected access, got %v", tc.name, err)
			}
			continue
		}
		if !apperr.Is(err, tc.kind) {
			t.Errorf("%s: expected kind %d, got %v", tc.name, tc.kind, err)
		}
	}
}
