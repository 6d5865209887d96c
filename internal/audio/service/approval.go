package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/audio/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
)

// SetApproval records the admin decision on a final or preview file
func (s *Service) SetApproval(ctx context.Context, ref string, fileID uuid.UUID, id httpkit.Identity, req transport.ApprovalRequest) (transport.AudioFileResponse, error) {
	approval := pipeline.Approval(req.Status)
	if !approval.Valid() {
		return transport.AudioFileResponse{}, apperr.Validation(fmt.Sprintf("unknown approval status %q", req.Status))
	}
	ev, err := s.writableEvent(ctx, ref, id)
	if err != nil {
		return transport.AudioFileResponse{}, err
	}
	file, err := s.fileOf(ctx, ev.ID, fileID)
	if err != nil {
		return transport.AudioFileResponse{}, err
	}
	if file.Status != string(pipeline.StatusReady) {
		return transport.AudioFileResponse{}, apperr.PreconditionFailed("file upload is not confirmed")
	}

	updated, err := s.repo.SetApproval(ctx, file.ID, string(approval))
	if err != nil {
		return transport.AudioFileResponse{}, err
	}
	if _, err := s.recompute(ctx, ev); err != nil {
		return transport.AudioFileResponse{}, err
	}
	return toFileResponse(updated), nil
}

// TeacherApproveSchulsong records the teacher's sign-off on the schulsong.
// An admin must have approved the schulsong final first.
func (s *Service) TeacherApproveSchulsong(ctx context.Context, ref string, id httpkit.Identity) (transport.AudioFileResponse, error) {
	ev, err := s.writableEvent(ctx, ref, id)
	if err != nil {
		return transport.AudioFileResponse{}, err
	}
	if !ev.IsSchulsong {
		return transport.AudioFileResponse{}, apperr.Validation("event has no schulsong")
	}
	files, err := s.repo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return transport.AudioFileResponse{}, err
	}
	finals := schulsongFinals(files)
	if len(finals) == 0 {
		return transport.AudioFileResponse{}, apperr.NotFound("no schulsong final uploaded yet")
	}
	for _, f := range finals {
		if f.ApprovalStatus != string(pipeline.ApprovalApproved) {
			return transport.AudioFileResponse{}, apperr.PreconditionFailed("schulsong must be approved by an admin first")
		}
	}

	// Every format of the schulsong carries the same sign-off.
	now := s.now()
	var updated repository.AudioFile
	for i, f := range finals {
		stamped, err := s.repo.SetTeacherApproved(ctx, f.ID, now)
		if err != nil {
			return transport.AudioFileResponse{}, err
		}
		if i == 0 {
			updated = stamped
		}
	}
	if _, err := s.recompute(ctx, ev); err != nil {
		return transport.AudioFileResponse{}, err
	}
	return toFileResponse(updated), nil
}

// schulsongFinals returns the ready schulsong finals, one per format.
func schulsongFinals(files []repository.AudioFile) []repository.AudioFile {
	var out []repository.AudioFile
	for _, f := range files {
		if f.IsSchulsong && f.Type == string(pipeline.TypeFinal) && f.Status == string(pipeline.StatusReady) {
			out = append(out, f)
		}
	}
	return out
}
