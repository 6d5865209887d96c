// Package pipeline computes the aggregate audio production stage of an event
// from its songs and audio files. Nothing here touches storage or the database.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/shared/choir"
)

// FileType is the kind of produced artifact.
type FileType string

const (
	TypeRaw                     FileType = "raw"
	TypePreview                 FileType = "preview"
	TypeFinal                   FileType = "final"
	TypeLogicProjectSchulsong   FileType = "logic-project-schulsong"
	TypeLogicProjectMinimusiker FileType = "logic-project-minimusiker"
)

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	switch t {
	case TypeRaw, TypePreview, TypeFinal, TypeLogicProjectSchulsong, TypeLogicProjectMinimusiker:
		return true
	}
	return false
}

// FileStatus tracks whether the binary was confirmed in storage.
type FileStatus string

const (
	StatusPending FileStatus = "pending"
	StatusReady   FileStatus = "ready"
)

// Approval is the admin decision on a file.
type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Valid reports whether a is a known approval value.
func (a Approval) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Stage is the derived event-level pipeline stage.
type Stage string

const (
	StageNoRawAudio       Stage = "no_raw_audio"
	StageStaffUploading   Stage = "staff_uploading"
	StageReadyForReview   Stage = "ready_for_review"
	StageAdminReviewing   Stage = "admin_reviewing"
	StageApproved         Stage = "approved"
	StageTeacherReviewing Stage = "teacher_reviewing"
	StageReleased         Stage = "released"
)

// AdminApprovalStatus is the value cached on the event row for list views.
type AdminApprovalStatus string

const (
	AdminPending          AdminApprovalStatus = "pending"
	AdminReadyForApproval AdminApprovalStatus = "ready_for_approval"
	AdminApproved         AdminApprovalStatus = "approved"
)

// File is the subset of an audio file record the stage rules read.
type File struct {
	ID                uuid.UUID
	Type              FileType
	Target            choir.Target
	Status            FileStatus
	Approval          Approval
	TeacherApprovedAt *time.Time
	IsSchulsong       bool
}

func (f File) isReadyFinal() bool {
	return f.Status == StatusReady && f.Type == TypeFinal
}

// StageInput is everything ComputeStage needs for one event.
type StageInput struct {
	// SongTargets lists every class or group with at least one song.
	SongTargets []choir.Target
	Files       []File
	// IsSchulsongEvent gates release on teacher approval of the schulsong.
	IsSchulsongEvent   bool
	AudioReleaseAt     time.Time
	SchulsongReleaseAt time.Time
	Now                time.Time
}

// Result is the computed stage plus the values cached on the event.
type Result struct {
	Stage               Stage               `json:"stage"`
	AdminApprovalStatus AdminApprovalStatus `json:"adminApprovalStatus"`
	AllTracksApproved   bool                `json:"allTracksApproved"`
	MissingTargets      []choir.Target      `json:"missingTargets"`
	FinalCount          int                 `json:"finalCount"`
	ApprovedCount       int                 `json:"approvedCount"`
}

// ComputeStage derives the stage from scratch. Only ready files count.
func ComputeStage(in StageInput) Result {
	stage, missing := compute(in)
	res := Result{Stage: stage, MissingTargets: missing}
	for _, f := range in.Files {
		if !f.isReadyFinal() {
			continue
		}
		res.FinalCount++
		if f.Approval == ApprovalApproved {
			res.ApprovedCount++
		}
	}
	res.AllTracksApproved = AllFinalsApproved(in.Files)
	res.AdminApprovalStatus = adminStatusFor(res.Stage)
	return res
}

func compute(in StageInput) (Stage, []choir.Target) {
	missing := MissingFinals(in.SongTargets, in.Files)

	if !hasReadyFile(in.Files) {
		return StageNoRawAudio, missing
	}

	if !coverageComplete(in, missing) {
		return StageStaffUploading, missing
	}

	if !AllFinalsApproved(in.Files) {
		if anyAdminDecision(in.Files) {
			return StageAdminReviewing, missing
		}
		return StageReadyForReview, missing
	}

	if in.IsSchulsongEvent && !schulsongTeacherApproved(in.Files) {
		return StageTeacherReviewing, missing
	}

	if in.Now.Before(in.AudioReleaseAt) {
		return StageApproved, missing
	}
	if in.IsSchulsongEvent && in.Now.Before(in.SchulsongReleaseAt) {
		return StageApproved, missing
	}
	return StageReleased, missing
}

// MissingFinals lists song targets that have no ready final file.
func MissingFinals(targets []choir.Target, files []File) []choir.Target {
	covered := make(map[choir.Target]bool)
	for _, f := range files {
		if f.isReadyFinal() && !f.Target.IsZero() {
			covered[f.Target] = true
		}
	}

	missing := []choir.Target{}
	seen := make(map[choir.Target]bool)
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		if !covered[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// coverageComplete: every song target has a final. A schulsong event also
// needs its schulsong final, and with no songs at all that final is the only
// requirement.
func coverageComplete(in StageInput, missing []choir.Target) bool {
	if in.IsSchulsongEvent || len(in.SongTargets) == 0 {
		if findSchulsongFinal(in.Files) == nil {
			return false
		}
	}
	return len(missing) == 0
}

// AllFinalsApproved is false when no ready final exists.
func AllFinalsApproved(files []File) bool {
	finals := 0
	for _, f := range files {
		if !f.isReadyFinal() {
			continue
		}
		finals++
		if f.Approval != ApprovalApproved {
			return false
		}
	}
	return finals > 0
}

func anyAdminDecision(files []File) bool {
	for _, f := range files {
		if f.isReadyFinal() && f.Approval != ApprovalPending && f.Approval != "" {
			return true
		}
	}
	return false
}

func hasReadyFile(files []File) bool {
	for _, f := range files {
		if f.Status == StatusReady {
			return true
		}
	}
	return false
}

func schulsongTeacherApproved(files []File) bool {
	f := findSchulsongFinal(files)
	return f != nil && f.TeacherApprovedAt != nil
}

func findSchulsongFinal(files []File) *File {
	for i := range files {
		if files[i].isReadyFinal() && files[i].IsSchulsong {
			return &files[i]
		}
	}
	return nil
}

func adminStatusFor(stage Stage) AdminApprovalStatus {
	switch stage {
	case StageReadyForReview, StageAdminReviewing:
		return AdminReadyForApproval
	case StageApproved, StageTeacherReviewing, StageReleased:
		return AdminApproved
	default:
		return AdminPending
	}
}
