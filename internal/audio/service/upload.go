package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"minimusiker_backend/internal/adapters/storage"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/audio/transport"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/sanitize"
)

const msgUploadMissing = "file not found in storage, upload may have failed"

// RequestUpload issues a signed PUT URL for a new artifact
func (s *Service) RequestUpload(ctx context.Context, ref string, id httpkit.Identity, req transport.UploadRequest) (transport.UploadURLResponse, error) {
	ev, err := s.writableEvent(ctx, ref, id)
	if err != nil {
		return transport.UploadURLResponse{}, err
	}
	fs, err := s.uploadSpec(ctx, ev, req)
	if err != nil {
		return transport.UploadURLResponse{}, err
	}

	key := fs.key(ev.EventID)
	contentType := storage.ContentTypeForFormat(fs.Format)
	signed, err := s.store.SignedUploadURL(ctx, key, contentType)
	if err != nil {
		return transport.UploadURLResponse{}, apperr.Transport("failed to sign upload url", err)
	}
	return transport.UploadURLResponse{
		UploadURL:   signed.URL,
		StorageKey:  key,
		ContentType: contentType,
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// ConfirmUpload verifies that the binary reached storage and records it as
// ready. Nothing is written when the object is missing.
func (s *Service) ConfirmUpload(ctx context.Context, ref string, id httpkit.Identity, req transport.ConfirmUploadRequest) (transport.ConfirmUploadResponse, error) {
	ev, err := s.writableEvent(ctx, ref, id)
	if err != nil {
		return transport.ConfirmUploadResponse{}, err
	}
	fs, err := s.uploadSpec(ctx, ev, req.UploadRequest)
	if err != nil {
		return transport.ConfirmUploadResponse{}, err
	}
	key := strings.TrimSpace(req.StorageKey)
	if !fs.owns(ev.EventID, key) {
		return transport.ConfirmUploadResponse{}, apperr.Validation("storage key does not match the upload")
	}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		s.metrics.AudioConfirm(string(fs.Type), false)
		return transport.ConfirmUploadResponse{}, apperr.Transport("failed to check storage", err)
	}
	if !exists {
		s.metrics.AudioConfirm(string(fs.Type), false)
		s.log.Warn("upload confirmation without object", "eventId", ev.EventID, "key", key)
		return transport.ConfirmUploadResponse{}, apperr.PreconditionFailed(msgUploadMissing)
	}

	classID, groupID := fs.Target.Columns()
	file, err := s.repo.Upsert(ctx, repository.UpsertParams{
		EventID:     ev.ID,
		ClassID:     classID,
		GroupID:     groupID,
		Type:        string(fs.Type),
		StorageKey:  key,
		Filename:    sanitize.Line(req.Filename),
		Format:      fs.Format,
		IsSchulsong: fs.IsSchulsong,
		UploadedBy:  id.SubjectID(),
	})
	if err != nil {
		return transport.ConfirmUploadResponse{}, err
	}
	s.metrics.AudioConfirm(string(fs.Type), true)

	s.publish(ctx, events.AudioUploadConfirmed{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: ev.ID,
		EventID:       ev.EventID,
		AudioFileID:   file.ID,
		FileType:      file.Type,
		Target:        fs.Target.String(),
		ActorID:       id.SubjectID(),
	})

	result, err := s.recompute(ctx, ev)
	if err != nil {
		return transport.ConfirmUploadResponse{}, err
	}
	return transport.ConfirmUploadResponse{File: toFileResponse(file), Stage: result.Stage}, nil
}

// DeleteAudioFile removes a file record and its object, then recomputes the
// stage so coverage can fall back.
func (s *Service) DeleteAudioFile(ctx context.Context, ref string, fileID uuid.UUID, id httpkit.Identity) error {
	ev, err := s.writableEvent(ctx, ref, id)
	if err != nil {
		return err
	}
	file, err := s.fileOf(ctx, ev.ID, fileID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, file.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		s.log.Error("failed to delete audio object", "key", file.StorageKey, "error", err)
	}
	_, err = s.recompute(ctx, ev)
	return err
}

// uploadSpec validates the request and checks the choir target belongs to the event.
func (s *Service) uploadSpec(ctx context.Context, ev *eventref.Event, req transport.UploadRequest) (fileSpec, error) {
	fs, err := newFileSpec(req.Type, req.Target, req.IsSchulsong, req.Format)
	if err != nil {
		return fileSpec{}, err
	}
	if fs.IsSchulsong && !ev.IsSchulsong {
		return fileSpec{}, apperr.Validation("event has no schulsong")
	}
	if fs.Target.IsZero() {
		return fs, nil
	}
	ok, err := s.roster.HasTarget(ctx, ev.ID, fs.Target)
	if err != nil {
		return fileSpec{}, err
	}
	if !ok {
		return fileSpec{}, apperr.NotFound("choir target not found")
	}
	return fs, nil
}
