package service

import (
	"context"
	"slices"

	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/shared/eventref"
)

// GetRecipientsForEvent fans out over the template audience. When both
// parent and non-buyer are targeted the parent query is narrowed to buyers,
// so the two sets never overlap.
func (s *Service) GetRecipientsForEvent(ctx context.Context, t repository.Template, ev *eventref.Event) ([]repository.Recipient, error) {
	out := make([]repository.Recipient, 0)
	for _, role := range []string{repository.RoleTeacher, repository.RoleParent, repository.RoleNonBuyer} {
		if !slices.Contains(t.Audience, role) {
			continue
		}

		var (
			items []repository.Recipient
			err   error
		)
		switch role {
		case repository.RoleTeacher:
			items, err = s.repo.ListTeacherRecipients(ctx, ev.ID)
		case repository.RoleParent:
			buyersOnly := slices.Contains(t.Audience, repository.RoleNonBuyer)
			items, err = s.repo.ListParentRecipients(ctx, ev.ID, buyersOnly)
		case repository.RoleNonBuyer:
			items, err = s.repo.ListNonBuyerRecipients(ctx, ev.ID)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
