package repository

import (
	"context"

	"github.com/google/uuid"
)

// ClassReader reads classes of an event
type ClassReader interface {
	GetClass(ctx context.Context, id uuid.UUID) (Class, error)
	ListClasses(ctx context.Context, eventID uuid.UUID) ([]Class, error)
}

// ClassWriter mutates classes
type ClassWriter interface {
	CreateClass(ctx context.Context, p ClassParams) (Class, error)
	UpdateClass(ctx context.Context, id uuid.UUID, p ClassParams) (Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
}

// GroupStore persists choir groups and their member classes
type GroupStore interface {
	GetGroup(ctx context.Context, id uuid.UUID) (Group, error)
	ListGroups(ctx context.Context, eventID uuid.UUID) ([]Group, error)
	CreateGroup(ctx context.Context, p GroupParams) (Group, error)
	UpdateGroup(ctx context.Context, id uuid.UUID, p GroupParams) (Group, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error
}

// SongStore persists songs and the album order
type SongStore interface {
	GetSong(ctx context.Context, id uuid.UUID) (Song, error)
	ListSongs(ctx context.Context, eventID uuid.UUID) ([]Song, error)
	CreateSong(ctx context.Context, p SongParams) (Song, error)
	UpdateSong(ctx context.Context, id uuid.UUID, p SongParams) (Song, error)
	DeleteSong(ctx context.Context, id uuid.UUID) error
	ReorderSongs(ctx context.Context, eventID uuid.UUID, ordered []uuid.UUID) error
}

// RosterRepository composes every roster store
type RosterRepository interface {
	ClassReader
	ClassWriter
	GroupStore
	SongStore
}

// ClassParams holds the writable class fields
type ClassParams struct {
	EventID     uuid.UUID
	Name        string
	TeacherName string
	NumChildren int
}

// GroupParams holds the writable group fields. ClassIDs replaces the full
// member list.
type GroupParams struct {
	EventID  uuid.UUID
	Name     string
	ClassIDs []uuid.UUID
}

// SongParams holds the writable song fields. Exactly one of ClassID and
// GroupID is set.
type SongParams struct {
	EventID uuid.UUID
	ClassID *uuid.UUID
	GroupID *uuid.UUID
	Title   string
	Artist  *string
	Notes   *string
}
