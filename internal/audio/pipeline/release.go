package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// SchulsongInput is what the parent-facing schulsong status reads.
type SchulsongInput struct {
	Files     []File
	ReleaseAt time.Time
	Now       time.Time
}

// Visibility distinguishes "no schulsong exists" from "exists but not released yet".
type Visibility struct {
	HasAudio      bool       `json:"hasAudio"`
	NotYetVisible bool       `json:"notYetVisible,omitempty"`
	FileID        *uuid.UUID `json:"-"`
	ReleaseAt     *time.Time `json:"releaseAt,omitempty"`
}

// SchulsongVisibility requires admin approval of all finals, teacher approval
// of the schulsong and the release date to have passed. Each is necessary.
func SchulsongVisibility(in SchulsongInput) Visibility {
	f := findSchulsongFinal(in.Files)
	if f == nil {
		return Visibility{HasAudio: false}
	}

	releaseAt := in.ReleaseAt
	adminApproved := AllFinalsApproved(in.Files)
	teacherApproved := f.TeacherApprovedAt != nil
	released := !in.Now.Before(releaseAt)

	if !adminApproved || !teacherApproved || !released {
		return Visibility{HasAudio: false, NotYetVisible: true, ReleaseAt: &releaseAt}
	}

	id := f.ID
	return Visibility{HasAudio: true, FileID: &id, ReleaseAt: &releaseAt}
}

// ParentAudioVisible reports whether parents may download regular tracks.
func ParentAudioVisible(stage Stage) bool {
	return stage == StageReleased
}
