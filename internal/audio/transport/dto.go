package transport

import (
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/shared/choir"
)

// UploadRequest describes a file the caller is about to upload. Target is
// required for raw, preview and final files that are not the schulsong.
type UploadRequest struct {
	Type        string `json:"type" validate:"required,oneof=raw preview final logic-project-schulsong logic-project-minimusiker"`
	Target      string `json:"target"`
	IsSchulsong bool   `json:"isSchulsong"`
	Filename    string `json:"filename" validate:"required,max=255"`
	Format      string `json:"format" validate:"required,oneof=mp3 wav m4a aac flac zip"`
}

// UploadURLResponse carries the signed PUT URL and the key to confirm
type UploadURLResponse struct {
	UploadURL   string    `json:"uploadUrl"`
	StorageKey  string    `json:"storageKey"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ConfirmUploadRequest finishes a two-phase upload
type ConfirmUploadRequest struct {
	UploadRequest
	StorageKey string `json:"storageKey" validate:"required,max=512"`
}

// ApprovalRequest carries the admin decision on a file
type ApprovalRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// AudioFileResponse is the API view of an audio file
type AudioFileResponse struct {
	ID                uuid.UUID     `json:"id"`
	EventID           uuid.UUID     `json:"eventId"`
	Type              string        `json:"type"`
	Target            *choir.Target `json:"target,omitempty"`
	StorageKey        string        `json:"storageKey"`
	Filename          string        `json:"filename"`
	Format            string        `json:"format"`
	Status            string        `json:"status"`
	ApprovalStatus    string        `json:"approvalStatus"`
	TeacherApprovedAt *time.Time    `json:"teacherApprovedAt,omitempty"`
	IsSchulsong       bool          `json:"isSchulsong"`
	UploadedBy        string        `json:"uploadedBy"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// ConfirmUploadResponse returns the stored file and the recomputed stage
type ConfirmUploadResponse struct {
	File  AudioFileResponse `json:"file"`
	Stage pipeline.Stage    `json:"stage"`
}

// PipelineResponse is the full production view of an event
type PipelineResponse struct {
	EventID            string              `json:"eventId"`
	Result             pipeline.Result     `json:"result"`
	SongTargets        []choir.Target      `json:"songTargets"`
	Files              []AudioFileResponse `json:"files"`
	AudioReleaseAt     time.Time           `json:"audioReleaseAt"`
	SchulsongReleaseAt *time.Time          `json:"schulsongReleaseAt,omitempty"`
}

// SchulsongStatusResponse is the parent-facing schulsong status
type SchulsongStatusResponse struct {
	pipeline.Visibility
	DownloadURL *string `json:"downloadUrl,omitempty"`
}

// DownloadResponse carries a signed GET URL
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
