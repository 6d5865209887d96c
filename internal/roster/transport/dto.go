package transport

import (
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/shared/choir"
)

// ClassRequest creates or updates a class
type ClassRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	TeacherName string `json:"teacherName" validate:"max=200"`
	NumChildren int    `json:"numChildren" validate:"min=0,max=1000"`
}

// ImportClassesRequest creates several classes at once
type ImportClassesRequest struct {
	Classes []ClassRequest `json:"classes" validate:"required,min=1,max=200,dive"`
}

// ClassResponse is the API view of a class
type ClassResponse struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"eventId"`
	Name        string    `json:"name"`
	TeacherName string    `json:"teacherName"`
	NumChildren int       `json:"numChildren"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ImportFailure reports one class that could not be created
type ImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportClassesResponse reports the outcome of a bulk import
type ImportClassesResponse struct {
	Created   []ClassResponse `json:"created"`
	Failed    []ImportFailure `json:"failed"`
	Skipped   int             `json:"skipped"`
	Cancelled bool            `json:"cancelled"`
}

// GroupRequest creates or updates a choir group
type GroupRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	ClassIDs []string `json:"classIds" validate:"required,dive,uuid"`
}

// GroupResponse is the API view of a choir group
type GroupResponse struct {
	ID        uuid.UUID    `json:"id"`
	EventID   uuid.UUID    `json:"eventId"`
	Target    choir.Target `json:"target"`
	Name      string       `json:"name"`
	ClassIDs  []uuid.UUID  `json:"classIds"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SongRequest creates or updates a song. Target accepts "class:<id>",
// "group:<id>", legacy "group_<id>" or a bare class id.
type SongRequest struct {
	Target string  `json:"target" validate:"required"`
	Title  string  `json:"title" validate:"required,max=200"`
	Artist *string `json:"artist,omitempty" validate:"omitempty,max=200"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// SongResponse is the API view of a song
type SongResponse struct {
	ID         uuid.UUID    `json:"id"`
	EventID    uuid.UUID    `json:"eventId"`
	Target     choir.Target `json:"target"`
	TargetName string       `json:"targetName"`
	Title      string       `json:"title"`
	Artist     *string      `json:"artist,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
	AlbumOrder int          `json:"albumOrder"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// ReorderAlbumRequest lists every song of the event in the new album order
type ReorderAlbumRequest struct {
	SongIDs []string `json:"songIds" validate:"required,min=1,dive,uuid"`
}

// RosterResponse bundles the classes, groups and songs of an event
type RosterResponse struct {
	EventID string          `json:"eventId"`
	Classes []ClassResponse `json:"classes"`
	Groups  []GroupResponse `json:"groups"`
	Songs   []SongResponse  `json:"songs"`
}
