package service

import (
	"context"
	"fmt"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/audio/transport"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/httpkit"
)

// snapshot is everything the stage rules read for one event.
type snapshot struct {
	files   []repository.AudioFile
	targets []choir.Target
	input   pipeline.StageInput
}

func (s *Service) load(ctx context.Context, ev *eventref.Event) (snapshot, error) {
	files, err := s.repo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return snapshot{}, err
	}
	targets, err := s.roster.SongTargets(ctx, ev.ID)
	if err != nil {
		return snapshot{}, err
	}
	milestones := ev.Milestones()
	return snapshot{
		files:   files,
		targets: targets,
		input: pipeline.StageInput{
			SongTargets:        targets,
			Files:              toPipelineFiles(files),
			IsSchulsongEvent:   ev.IsSchulsong,
			AudioReleaseAt:     milestones.AudioRelease,
			SchulsongReleaseAt: milestones.SchulsongRelease,
			Now:                s.now(),
		},
	}, nil
}

// RecomputeStage re-derives the stage from scratch and refreshes the cached
// columns on the event
func (s *Service) RecomputeStage(ctx context.Context, ref string, id httpkit.Identity) (pipeline.Result, error) {
	ev, err := s.event(ctx, ref, id)
	if err != nil {
		return pipeline.Result{}, err
	}
	return s.recompute(ctx, ev)
}

// recompute is idempotent: concurrent callers converge on the same cache
// values. A change against the cached stage is published once per caller
// that observed it.
func (s *Service) recompute(ctx context.Context, ev *eventref.Event) (pipeline.Result, error) {
	snap, err := s.load(ctx, ev)
	if err != nil {
		return pipeline.Result{}, err
	}
	result := pipeline.ComputeStage(snap.input)

	releasedAt := ev.SchulsongReleasedAt
	if result.Stage == pipeline.StageReleased && ev.IsSchulsong && releasedAt == nil {
		now := snap.input.Now
		releasedAt = &now
	}
	err = s.stageCache.UpdatePipelineCache(ctx, ev.ID, string(result.Stage),
		string(result.AdminApprovalStatus), result.AllTracksApproved, releasedAt)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("update pipeline cache: %w", err)
	}

	previous := ev.PipelineStage
	if previous != string(result.Stage) {
		s.log.Info("pipeline stage changed", "eventId", ev.EventID, "from", previous, "to", result.Stage)
		s.metrics.StageChanged(string(result.Stage))
		s.publish(ctx, events.EventStageChanged{
			BaseEvent:     events.NewBaseEvent(),
			EventRecordID: ev.ID,
			EventID:       ev.EventID,
			From:          previous,
			To:            string(result.Stage),
		})
	}
	ev.PipelineStage = string(result.Stage)
	ev.AdminApprovalStatus = string(result.AdminApprovalStatus)
	ev.AllTracksApproved = result.AllTracksApproved
	ev.SchulsongReleasedAt = releasedAt
	return result, nil
}

// GetPipeline returns the computed stage together with every file
func (s *Service) GetPipeline(ctx context.Context, ref string, id httpkit.Identity) (transport.PipelineResponse, error) {
	ev, err := s.event(ctx, ref, id)
	if err != nil {
		return transport.PipelineResponse{}, err
	}
	snap, err := s.load(ctx, ev)
	if err != nil {
		return transport.PipelineResponse{}, err
	}

	resp := transport.PipelineResponse{
		EventID:        ev.EventID,
		Result:         pipeline.ComputeStage(snap.input),
		SongTargets:    snap.targets,
		Files:          toFileResponses(snap.files),
		AudioReleaseAt: snap.input.AudioReleaseAt,
	}
	if ev.IsSchulsong {
		at := snap.input.SchulsongReleaseAt
		resp.SchulsongReleaseAt = &at
	}
	return resp, nil
}
