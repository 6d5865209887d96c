package service

import (
	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/audio/transport"
	"minimusiker_backend/internal/shared/choir"
)

func toPipelineFiles(files []repository.AudioFile) []pipeline.File {
	out := make([]pipeline.File, 0, len(files))
	for _, f := range files {
		out = append(out, pipeline.File{
			ID:                f.ID,
			Type:              pipeline.FileType(f.Type),
			Target:            choir.FromColumns(f.ClassID, f.GroupID),
			Status:            pipeline.FileStatus(f.Status),
			Approval:          pipeline.Approval(f.ApprovalStatus),
			TeacherApprovedAt: f.TeacherApprovedAt,
			IsSchulsong:       f.IsSchulsong,
		})
	}
	return out
}

func toFileResponse(f repository.AudioFile) transport.AudioFileResponse {
	resp := transport.AudioFileResponse{
		ID:                f.ID,
		EventID:           f.EventID,
		Type:              f.Type,
		StorageKey:        f.StorageKey,
		Filename:          f.Filename,
		Format:            f.Format,
		Status:            f.Status,
		ApprovalStatus:    f.ApprovalStatus,
		TeacherApprovedAt: f.TeacherApprovedAt,
		IsSchulsong:       f.IsSchulsong,
		UploadedBy:        f.UploadedBy,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
	if t := choir.FromColumns(f.ClassID, f.GroupID); !t.IsZero() {
		resp.Target = &t
	}
	return resp
}

func toFileResponses(files []repository.AudioFile) []transport.AudioFileResponse {
	out := make([]transport.AudioFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return out
}
