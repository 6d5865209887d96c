package service

import (
	"context"

	"github.com/google/uuid"

	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/sanitize"
)

// ListSongs returns the songs of an event in album order
func (s *Service) ListSongs(ctx context.Context, ref string, id httpkit.Identity) ([]transport.SongResponse, error) {
	ev, err := s.event(ctx, ref, id, false)
	if err != nil {
		return nil, err
	}
	songs, names, err := s.songsWithNames(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	return toSongResponses(songs, names), nil
}

// CreateSong adds a song for a class or group of the event
func (s *Service) CreateSong(ctx context.Context, ref string, id httpkit.Identity, req transport.SongRequest) (transport.SongResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.SongResponse{}, err
	}
	params, name, err := s.songParams(ctx, ev.ID, req)
	if err != nil {
		return transport.SongResponse{}, err
	}
	song, err := s.repo.CreateSong(ctx, params)
	if err != nil {
		return transport.SongResponse{}, err
	}
	s.changed(ctx, ev, "song.created", id)
	return toSongResponse(song, name), nil
}

// UpdateSong changes a song of the event
func (s *Service) UpdateSong(ctx context.Context, ref string, songID uuid.UUID, id httpkit.Identity, req transport.SongRequest) (transport.SongResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.SongResponse{}, err
	}
	if _, err := s.songOf(ctx, ev.ID, songID); err != nil {
		return transport.SongResponse{}, err
	}
	params, name, err := s.songParams(ctx, ev.ID, req)
	if err != nil {
		return transport.SongResponse{}, err
	}
	song, err := s.repo.UpdateSong(ctx, songID, params)
	if err != nil {
		return transport.SongResponse{}, err
	}
	s.changed(ctx, ev, "song.updated", id)
	return toSongResponse(song, name), nil
}

// DeleteSong removes a song of the event
func (s *Service) DeleteSong(ctx context.Context, ref string, songID uuid.UUID, id httpkit.Identity) error {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return err
	}
	if _, err := s.songOf(ctx, ev.ID, songID); err != nil {
		return err
	}
	if err := s.repo.DeleteSong(ctx, songID); err != nil {
		return err
	}
	s.changed(ctx, ev, "song.deleted", id)
	return nil
}

// ReorderAlbum sets the album order. The list must contain every song of
// the event exactly once.
func (s *Service) ReorderAlbum(ctx context.Context, ref string, id httpkit.Identity, req transport.ReorderAlbumRequest) ([]transport.SongResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return nil, err
	}
	songs, err := s.repo.ListSongs(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]struct{}, len(songs))
	for _, song := range songs {
		existing[song.ID] = struct{}{}
	}
	if len(req.SongIDs) != len(existing) {
		return nil, apperr.Validation("album order must list every song of the event exactly once")
	}
	ordered := make([]uuid.UUID, 0, len(req.SongIDs))
	for _, raw := range req.SongIDs {
		songID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation("invalid song id")
		}
		if _, ok := existing[songID]; !ok {
			return nil, apperr.Validation("album order must list every song of the event exactly once")
		}
		delete(existing, songID)
		ordered = append(ordered, songID)
	}

	if err := s.repo.ReorderSongs(ctx, ev.ID, ordered); err != nil {
		return nil, err
	}
	reordered, names, err := s.songsWithNames(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	return toSongResponses(reordered, names), nil
}

// songParams parses the choir target once and checks it belongs to the event.
func (s *Service) songParams(ctx context.Context, eventID uuid.UUID, req transport.SongRequest) (repository.SongParams, string, error) {
	target, err := choir.Parse(req.Target)
	if err != nil {
		return repository.SongParams{}, "", err
	}
	title := sanitize.Line(req.Title)
	if title == "" {
		return repository.SongParams{}, "", apperr.Validation("song title is required")
	}

	var name string
	switch target.Kind {
	case choir.KindGroup:
		g, err := s.groupOf(ctx, eventID, target.ID)
		if err != nil {
			return repository.SongParams{}, "", err
		}
		name = g.Name
	default:
		c, err := s.classOf(ctx, eventID, target.ID)
		if err != nil {
			return repository.SongParams{}, "", err
		}
		name = c.Name
	}

	classID, groupID := target.Columns()
	return repository.SongParams{
		EventID: eventID,
		ClassID: classID,
		GroupID: groupID,
		Title:   title,
		Artist:  sanitize.TextPtr(req.Artist),
		Notes:   sanitize.TextPtr(req.Notes),
	}, name, nil
}

func (s *Service) songOf(ctx context.Context, eventID, songID uuid.UUID) (repository.Song, error) {
	song, err := s.repo.GetSong(ctx, songID)
	if err != nil {
		return repository.Song{}, err
	}
	if song.EventID != eventID {
		return repository.Song{}, apperr.NotFound("song not found")
	}
	return song, nil
}

// songsWithNames lists the songs and the display names of their targets.
func (s *Service) songsWithNames(ctx context.Context, eventID uuid.UUID) ([]repository.Song, map[choir.Target]string, error) {
	songs, err := s.repo.ListSongs(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	classes, err := s.repo.ListClasses(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	groups, err := s.repo.ListGroups(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return songs, targetNames(classes, groups), nil
}

func targetNames(classes []repository.Class, groups []repository.Group) map[choir.Target]string {
	names := make(map[choir.Target]string, len(classes)+len(groups))
	for _, c := range classes {
		names[choir.Class(c.ID)] = c.Name
	}
	for _, g := range groups {
		names[choir.Group(g.ID)] = g.Name
	}
	return names
}
