package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AudioFileReader reads audio file records
type AudioFileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (AudioFile, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]AudioFile, error)
}

// AudioFileWriter mutates audio file records
type AudioFileWriter interface {
	Upsert(ctx context.Context, p UpsertParams) (AudioFile, error)
	SetApproval(ctx context.Context, id uuid.UUID, approval string) (AudioFile, error)
	SetTeacherApproved(ctx context.Context, id uuid.UUID, at time.Time) (AudioFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StageIndex reads the cached pipeline stage of events
type StageIndex interface {
	ListEventIDsAtStage(ctx context.Context, stage string) ([]uuid.UUID, error)
}

// AudioRepository composes the audio file stores
type AudioRepository interface {
	AudioFileReader
	AudioFileWriter
	StageIndex
}

// UpsertParams describes a confirmed upload. A record with the same storage
// key is replaced.
type UpsertParams struct {
	EventID     uuid.UUID
	ClassID     *uuid.UUID
	GroupID     *uuid.UUID
	Type        string
	StorageKey  string
	Filename    string
	Format      string
	IsSchulsong bool
	UploadedBy  string
}
