package library

import (
	"context"

	"Tune-Lens-Go/pkg/catalog"
	"Tune-Lens-Go/pkg/music"
	"Tune-Lens-Go/pkg/store"
)

// Browse operations are pass-throughs: they call upstream, map the wire
// payloads to display types and persist nothing.

func albumSummary(item catalog.AlbumItem) music.AlbumSummary {
	s := music.AlbumSummary{ID: item.ID, Name: item.Name}
	if len(item.Artists) > 0 {
		s.ArtistName = item.Artists[0].Name
	}
	if len(item.Images) > 0 {
		s.ImageURL = item.Images[0].URL
	}
	return s
}

func artistSummary(p catalog.ArtistPayload) music.ArtistSummary {
	s := music.ArtistSummary{ID: p.ID, Name: p.Name}
	if len(p.Images) > 0 {
		s.ImageURL = p.Images[0].URL
	}
	return s
}

// NewReleases returns the current new-release albums for the index page.
func (s *Service) NewReleases(ctx context.Context, token string) ([]music.AlbumSummary, error) {
	items, err := s.catalog.NewReleases(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]music.AlbumSummary, len(items))
	for i, item := range items {
		out[i] = albumSummary(item)
	}
	return out, nil
}

// RecentlyPlayed returns the user's listening history.
func (s *Service) RecentlyPlayed(ctx context.Context, token string) ([]music.PlayedTrack, error) {
	items, err := s.catalog.RecentlyPlayed(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]music.PlayedTrack, len(items))
	for i, item := range items {
		pt := music.PlayedTrack{
			TrackID:  item.Track.ID,
			Name:     item.Track.Name,
			PlayedAt: item.PlayedAt,
		}
		if len(item.Track.Artists) > 0 {
			pt.ArtistName = item.Track.Artists[0].Name
		}
		out[i] = pt
	}
	return out, nil
}

// ArtistWithAlbums fetches the artist and their album list in two upstream
// calls. Nothing is cached; the artist page always reflects upstream.
func (s *Service) ArtistWithAlbums(ctx context.Context, token, id string) (music.ArtistDetail, error) {
	artist, err := s.catalog.Artist(ctx, token, id)
	if err != nil {
		return music.ArtistDetail{}, err
	}
	items, err := s.catalog.ArtistAlbums(ctx, token, id)
	if err != nil {
		return music.ArtistDetail{}, err
	}
	detail := music.ArtistDetail{Artist: artistSummary(artist)}
	for _, item := range items {
		detail.Albums = append(detail.Albums, albumSummary(item))
	}
	return detail, nil
}

// SearchArtists returns artist matches for q together with the total
// reported by upstream.
func (s *Service) SearchArtists(ctx context.Context, token, q string) (music.SearchResult, error) {
	page, err := s.catalog.SearchArtists(ctx, token, q)
	if err != nil {
		return music.SearchResult{}, err
	}
	res := music.SearchResult{Total: page.Total}
	for _, item := range page.Items {
		res.Artists = append(res.Artists, artistSummary(item))
	}
	return res, nil
}

// TracksTable returns up to n cached tracks with their features.
func (s *Service) TracksTable(ctx context.Context, n int) ([]store.TrackWithFeatures, error) {
	return s.store.ListTrackFeatures(ctx, n)
}

// AlbumsTable returns up to n cached albums with their averaged features.
func (s *Service) AlbumsTable(ctx context.Context, n int) ([]store.AlbumWithFeatures, error) {
	return s.store.ListAlbumFeatures(ctx, n)
}
