package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/httpkit"
)

const albumDateLayout = "02.01.2006"

// AlbumPDF renders the album track list of an event
func (s *Service) AlbumPDF(ctx context.Context, ref string, id httpkit.Identity) ([]byte, string, error) {
	ev, err := s.event(ctx, ref, id, false)
	if err != nil {
		return nil, "", err
	}
	roster, err := s.roster(ctx, ev)
	if err != nil {
		return nil, "", err
	}
	data, err := renderAlbum(ev, roster.Songs)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("album-%s.pdf", ev.EventID), nil
}

func renderAlbum(ev *eventref.Event, songs []transport.SongResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Album "+ev.SchoolName, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(ev.SchoolName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr("Minimusikertag am "+ev.EventDate.Format(albumDateLayout)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, ev.EventID, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{12, 78, 50, 40}
	headers := []string{"Nr.", "Titel", "Interpret", "Klasse / Gruppe"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	if len(songs) == 0 {
		pdf.CellFormat(sum(widths), 8, tr("Noch keine Lieder eingetragen"), "1", 1, "C", false, 0, "")
	}
	for i, song := range songs {
		artist := ""
		if song.Artist != nil {
			artist = *song.Artist
		}
		cells := []string{strconv.Itoa(i + 1), tr(song.Title), tr(artist), tr(song.TargetName)}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render album pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
