package pipeline

import (
	"testing"
	"time"
)

func TestSchulsongVisibility(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(72 * time.Hour)

	cases := []struct {
		name          string
		files         []File
		releaseAt     time.Time
		wantAudio     bool
		wantNotYetVis bool
	}{
		{"no schulsong file", []File{readyFinal(classA, ApprovalApproved)}, past, false, false},
		{"pending schulsong upload", []File{{Type: TypeFinal, Status: StatusPending, IsSchulsong: true}}, past, false, false},
		{"waiting period not elapsed", []File{schulsongFinal(ApprovalApproved, true)}, future, false, true},
		{"teacher not approved", []File{schulsongFinal(ApprovalApproved, false)}, past, false, true},
		{"admin not approved", []File{schulsongFinal(ApprovalPending, true)}, past, false, true},
		{"other final unapproved", []File{schulsongFinal(ApprovalApproved, true), readyFinal(classA, ApprovalPending)}, past, false, true},
		{"all gates pass", []File{schulsongFinal(ApprovalApproved, true)}, past, true, false},
		{"release day reached exactly", []File{schulsongFinal(ApprovalApproved, true)}, now, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SchulsongVisibility(SchulsongInput{Files: tc.files, ReleaseAt: tc.releaseAt, Now: now})
			if got.HasAudio != tc.wantAudio || got.NotYetVisible != tc.wantNotYetVis {
				t.Fatalf("expected hasAudio=%v notYetVisible=%v, got %+v", tc.wantAudio, tc.wantNotYetVis, got)
			}
			if got.HasAudio && got.FileID == nil {
				t.Fatal("expected file id when visible")
			}
		})
	}
}
