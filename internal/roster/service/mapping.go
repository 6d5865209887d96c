package service

import (
	"context"

	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/httpkit"
)

// Roster returns the classes, groups and songs of an event in one view
func (s *Service) Roster(ctx context.Context, ref string, id httpkit.Identity) (transport.RosterResponse, error) {
	ev, err := s.event(ctx, ref, id, false)
	if err != nil {
		return transport.RosterResponse{}, err
	}
	return s.roster(ctx, ev)
}

func (s *Service) roster(ctx context.Context, ev *eventref.Event) (transport.RosterResponse, error) {
	classes, err := s.repo.ListClasses(ctx, ev.ID)
	if err != nil {
		return transport.RosterResponse{}, err
	}
	groups, err := s.repo.ListGroups(ctx, ev.ID)
	if err != nil {
		return transport.RosterResponse{}, err
	}
	songs, err := s.repo.ListSongs(ctx, ev.ID)
	if err != nil {
		return transport.RosterResponse{}, err
	}
	return transport.RosterResponse{
		EventID: ev.EventID,
		Classes: toClassResponses(classes),
		Groups:  toGroupResponses(groups),
		Songs:   toSongResponses(songs, targetNames(classes, groups)),
	}, nil
}

func toClassResponse(c repository.Class) transport.ClassResponse {
	return transport.ClassResponse{
		ID:          c.ID,
		EventID:     c.EventID,
		Name:        c.Name,
		TeacherName: c.TeacherName,
		NumChildren: c.NumChildren,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toClassResponses(classes []repository.Class) []transport.ClassResponse {
	out := make([]transport.ClassResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClassResponse(c))
	}
	return out
}

func toGroupResponse(g repository.Group) transport.GroupResponse {
	return transport.GroupResponse{
		ID:        g.ID,
		EventID:   g.EventID,
		Target:    choir.Group(g.ID),
		Name:      g.Name,
		ClassIDs:  g.ClassIDs,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func toGroupResponses(groups []repository.Group) []transport.GroupResponse {
	out := make([]transport.GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	return out
}

func toSongResponse(song repository.Song, targetName string) transport.SongResponse {
	return transport.SongResponse{
		ID:         song.ID,
		EventID:    song.EventID,
		Target:     choir.FromColumns(song.ClassID, song.GroupID),
		TargetName: targetName,
		Title:      song.Title,
		Artist:     song.Artist,
		Notes:      song.Notes,
		AlbumOrder: song.AlbumOrder,
		CreatedAt:  song.CreatedAt,
		UpdatedAt:  song.UpdatedAt,
	}
}

func toSongResponses(songs []repository.Song, names map[choir.Target]string) []transport.SongResponse {
	out := make([]transport.SongResponse, 0, len(songs))
	for _, song := range songs {
		out = append(out, toSongResponse(song, names[choir.FromColumns(song.ClassID, song.GroupID)]))
	}
	return out
}
