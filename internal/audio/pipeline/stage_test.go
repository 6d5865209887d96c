package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/shared/choir"
)

var (
	classA = choir.Class(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	classB = choir.Class(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	now    = time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
)

func readyFinal(target choir.Target, approval Approval) File {
	return File{ID: uuid.New(), Type: TypeFinal, Target: target, Status: StatusReady, Approval: approval}
}

func schulsongFinal(approval Approval, teacherApproved bool) File {
	f := File{ID: uuid.New(), Type: TypeFinal, Status: StatusReady, Approval: approval, IsSchulsong: true}
	if teacherApproved {
		at := now.Add(-48 * time.Hour)
		f.TeacherApprovedAt = &at
	}
	return f
}

func TestComputeStage(t *testing.T) {
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name string
		in   StageInput
		want Stage
	}{
		{
			name: "nothing uploaded",
			in:   StageInput{SongTargets: []choir.Target{classA}, Now: now},
			want: StageNoRawAudio,
		},
		{
			name: "pending uploads do not count",
			in: StageInput{
				SongTargets: []choir.Target{classA},
				Files:       []File{{Type: TypeFinal, Target: classA, Status: StatusPending}},
				Now:         now,
			},
			want: StageNoRawAudio,
		},
		{
			name: "raw only",
			in: StageInput{
				SongTargets: []choir.Target{classA},
				Files:       []File{{Type: TypeRaw, Target: classA, Status: StatusReady}},
				Now:         now,
			},
			want: StageStaffUploading,
		},
		{
			name: "one of two classes covered",
			in: StageInput{
				SongTargets: []choir.Target{classA, classB},
				Files:       []File{readyFinal(classA, ApprovalPending)},
				Now:         now,
			},
			want: StageStaffUploading,
		},
		{
			name: "both classes covered",
			in: StageInput{
				SongTargets: []choir.Target{classA, classB},
				Files:       []File{readyFinal(classA, ApprovalPending), readyFinal(classB, ApprovalPending)},
				Now:         now,
			},
			want: StageReadyForReview,
		},
		{
			name: "partially approved",
			in: StageInput{
				SongTargets: []choir.Target{classA, classB},
				Files:       []File{readyFinal(classA, ApprovalApproved), readyFinal(classB, ApprovalPending)},
				Now:         now,
			},
			want: StageAdminReviewing,
		},
		{
			name: "rejected final keeps admin reviewing",
			in: StageInput{
				SongTargets: []choir.Target{classA},
				Files:       []File{readyFinal(classA, ApprovalRejected)},
				Now:         now,
			},
			want: StageAdminReviewing,
		},
		{
			name: "approved before release date",
			in: StageInput{
				SongTargets:    []choir.Target{classA},
				Files:          []File{readyFinal(classA, ApprovalApproved)},
				AudioReleaseAt: future,
				Now:            now,
			},
			want: StageApproved,
		},
		{
			name: "released",
			in: StageInput{
				SongTargets:    []choir.Target{classA},
				Files:          []File{readyFinal(classA, ApprovalApproved)},
				AudioReleaseAt: past,
				Now:            now,
			},
			want: StageReleased,
		},
		{
			name: "schulsong awaiting teacher",
			in: StageInput{
				SongTargets:      []choir.Target{classA},
				Files:            []File{readyFinal(classA, ApprovalApproved), schulsongFinal(ApprovalApproved, false)},
				IsSchulsongEvent: true,
				Now:              now,
			},
			want: StageTeacherReviewing,
		},
		{
			name: "schulsong event with classes covered but no schulsong final",
			in: StageInput{
				SongTargets:      []choir.Target{classA},
				Files:            []File{readyFinal(classA, ApprovalApproved)},
				IsSchulsongEvent: true,
				AudioReleaseAt:   past,
				Now:              now,
			},
			want: StageStaffUploading,
		},
		{
			name: "schulsong-only event with schulsong final",
			in: StageInput{
				Files:            []File{schulsongFinal(ApprovalPending, false)},
				IsSchulsongEvent: true,
				Now:              now,
			},
			want: StageReadyForReview,
		},
		{
			name: "schulsong-only event without schulsong final",
			in: StageInput{
				Files:            []File{{Type: TypeRaw, Status: StatusReady, IsSchulsong: true}},
				IsSchulsongEvent: true,
				Now:              now,
			},
			want: StageStaffUploading,
		},
		{
			name: "schulsong waits for its own release date",
			in: StageInput{
				Files:              []File{schulsongFinal(ApprovalApproved, true)},
				IsSchulsongEvent:   true,
				AudioReleaseAt:     past,
				SchulsongReleaseAt: future,
				Now:                now,
			},
			want: StageApproved,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeStage(tc.in).Stage; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestComputeStageRevertsWhenFinalRemoved(t *testing.T) {
	finalA := readyFinal(classA, ApprovalPending)
	finalB := readyFinal(classB, ApprovalPending)
	in := StageInput{SongTargets: []choir.Target{classA, classB}, Files: []File{finalA, finalB}, Now: now}

	if got := ComputeStage(in).Stage; got != StageReadyForReview {
		t.Fatalf("expected ready_for_review, got %s", got)
	}

	in.Files = []File{finalA}
	res := ComputeStage(in)
	if res.Stage != StageStaffUploading {
		t.Fatalf("expected staff_uploading after removing class B final, got %s", res.Stage)
	}
	if len(res.MissingTargets) != 1 || res.MissingTargets[0] != classB {
		t.Fatalf("expected class B missing, got %v", res.MissingTargets)
	}
}

func TestComputeStageIsRepeatable(t *testing.T) {
	in := StageInput{
		SongTargets: []choir.Target{classA},
		Files:       []File{readyFinal(classA, ApprovalApproved)},
		Now:         now,
	}
	first := ComputeStage(in)
	second := ComputeStage(in)
	if first.Stage != second.Stage || first.AdminApprovalStatus != second.AdminApprovalStatus {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestAllFinalsApprovedNeverVacuous(t *testing.T) {
	if AllFinalsApproved(nil) {
		t.Fatal("zero finals must not count as all approved")
	}
	if AllFinalsApproved([]File{{Type: TypeRaw, Status: StatusReady, Approval: ApprovalApproved}}) {
		t.Fatal("raw files must not count as finals")
	}
	if !AllFinalsApproved([]File{readyFinal(classA, ApprovalApproved)}) {
		t.Fatal("expected single approved final to count")
	}
}

func TestResultCachedValues(t *testing.T) {
	res := ComputeStage(StageInput{
		SongTargets: []choir.Target{classA, classB},
		Files:       []File{readyFinal(classA, ApprovalApproved), readyFinal(classB, ApprovalPending)},
		Now:         now,
	})
	if res.AdminApprovalStatus != AdminReadyForApproval {
		t.Fatalf("expected ready_for_approval, got %s", res.AdminApprovalStatus)
	}
	if res.AllTracksApproved {
		t.Fatal("expected all_tracks_approved=false")
	}
	if res.FinalCount != 2 || res.ApprovedCount != 1 {
		t.Fatalf("unexpected counts %d/%d", res.ApprovedCount, res.FinalCount)
	}
}
