// Package library implements the read-through cache over the catalog API.
// Resolving a track or album returns the locally stored entity when
// present and otherwise fetches it upstream, persists it together with its
// dependencies (artist, audio features) and returns the result. Artist
// pages and search are pass-throughs without persistence.
package library

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"Tune-Lens-Go/pkg/catalog"
	"Tune-Lens-Go/pkg/metrics"
	"Tune-Lens-Go/pkg/music"
	"Tune-Lens-Go/pkg/store"
)

// Fetcher is the subset of the catalog client used by the service. It
// allows the concrete client to be replaced in tests.
type Fetcher interface {
	Album(ctx context.Context, token, id string) (catalog.AlbumPayload, error)
	Track(ctx context.Context, token, id string) (catalog.TrackPayload, error)
	TrackFeatures(ctx context.Context, token, id string) (catalog.FeaturesPayload, error)
	Artist(ctx context.Context, token, id string) (catalog.ArtistPayload, error)
	ArtistAlbums(ctx context.Context, token, id string) ([]catalog.AlbumItem, error)
	NewReleases(ctx context.Context, token string) ([]catalog.AlbumItem, error)
	RecentlyPlayed(ctx context.Context, token string) ([]catalog.PlayHistoryItem, error)
	SearchArtists(ctx context.Context, token, q string) (catalog.ArtistPage, error)
}

// Service materializes catalog entities on first read.
type Service struct {
	store   *store.DB
	catalog Fetcher
	log     *logrus.Entry
}

// NewService wires the store and catalog client together. log may be nil,
// in which case the standard logger is used.
func NewService(db *store.DB, fetcher Fetcher, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: db, catalog: fetcher, log: log}
}

// ResolveTrack returns the track and its audio features, materializing
// both on first access. A concurrent materialization of the same ID is
// resolved by re-reading the winner's rows instead of failing.
func (s *Service) ResolveTrack(ctx context.Context, token, id string) (music.Track, music.AudioFeatures, error) {
	track, feats, err := s.storedTrack(ctx, token, id)
	switch {
	case err == nil:
		metrics.Materializations.WithLabelValues("track", "hit").Inc()
		return track, feats, nil
	case !errors.Is(err, music.ErrNotFound):
		metrics.Materializations.WithLabelValues("track", "error").Inc()
		return music.Track{}, music.AudioFeatures{}, err
	}

	payload, err := s.catalog.Track(ctx, token, id)
	if err != nil {
		metrics.Materializations.WithLabelValues("track", "error").Inc()
		return music.Track{}, music.AudioFeatures{}, err
	}
	if len(payload.Artists) == 0 {
		metrics.Materializations.WithLabelValues("track", "error").Inc()
		return music.Track{}, music.AudioFeatures{}, &music.ShapeError{Entity: "track", Field: "artists"}
	}
	// Collaborators beyond the first artist are ignored.
	artist, _, err := s.store.GetOrCreateArtist(ctx, payload.Artists[0].ID, payload.Artists[0].Name)
	if err != nil {
		return music.Track{}, music.AudioFeatures{}, err
	}
	if err := s.store.CreateTrack(ctx, id, payload.Name, artist.ID); err != nil {
		if store.IsConflict(err) {
			// Another request materialized this ID first; its rows win.
			return s.storedTrack(ctx, token, id)
		}
		metrics.Materializations.WithLabelValues("track", "error").Inc()
		return music.Track{}, music.AudioFeatures{}, err
	}
	feats, err = s.materializeTrackFeatures(ctx, token, id)
	if err != nil {
		metrics.Materializations.WithLabelValues("track", "error").Inc()
		return music.Track{}, music.AudioFeatures{}, err
	}
	metrics.Materializations.WithLabelValues("track", "miss").Inc()
	return music.Track{ID: id, Name: payload.Name, Artist: artist}, feats, nil
}

// storedTrack loads a cached track and its features. A track row without a
// feature link is healed by fetching and linking the features rather than
// being served half-built.
func (s *Service) storedTrack(ctx context.Context, token, id string) (music.Track, music.AudioFeatures, error) {
	track, err := s.store.GetTrack(ctx, id)
	if err != nil {
		return music.Track{}, music.AudioFeatures{}, err
	}
	feats, err := s.store.TrackFeatures(ctx, id)
	if errors.Is(err, music.ErrNotMaterialized) {
		s.log.WithField("track_id", id).Warn("track stored without features, refetching")
		feats, err = s.materializeTrackFeatures(ctx, token, id)
	}
	if err != nil {
		return music.Track{}, music.AudioFeatures{}, err
	}
	return track, feats, nil
}

// materializeTrackFeatures fetches, rounds and links the track's audio
// features, then reads the link back so two racing requests both return
// the single persisted record.
func (s *Service) materializeTrackFeatures(ctx context.Context, token, id string) (music.AudioFeatures, error) {
	payload, err := s.catalog.TrackFeatures(ctx, token, id)
	if err != nil {
		return music.AudioFeatures{}, err
	}
	f := music.AudioFeatures{
		Danceability:     payload.Danceability,
		Speechiness:      payload.Speechiness,
		Acousticness:     payload.Acousticness,
		Valence:          payload.Valence,
		Instrumentalness: payload.Instrumentalness,
		Energy:           payload.Energy,
		Liveness:         payload.Liveness,
	}.Rounded()
	fid, err := s.store.CreateFeatures(ctx, f)
	if err != nil {
		return music.AudioFeatures{}, err
	}
	if err := s.store.LinkTrackFeatures(ctx, id, fid); err != nil {
		return music.AudioFeatures{}, err
	}
	return s.store.TrackFeatures(ctx, id)
}

// ResolveAlbum returns the album with its tracks and averaged audio
// features, materializing the whole graph on first access. Track rows
// shared with previously resolved albums are reused, never duplicated.
func (s *Service) ResolveAlbum(ctx context.Context, token, id string) (music.Album, music.AudioFeatures, error) {
	album, err := s.store.GetAlbum(ctx, id)
	if err == nil {
		feats, ferr := s.store.AlbumFeatures(ctx, id)
		if ferr != nil {
			metrics.Materializations.WithLabelValues("album", "error").Inc()
			return music.Album{}, music.AudioFeatures{}, ferr
		}
		metrics.Materializations.WithLabelValues("album", "hit").Inc()
		return album, feats, nil
	}
	if !errors.Is(err, music.ErrNotFound) {
		return music.Album{}, music.AudioFeatures{}, err
	}

	payload, err := s.catalog.Album(ctx, token, id)
	if err != nil {
		metrics.Materializations.WithLabelValues("album", "error").Inc()
		return music.Album{}, music.AudioFeatures{}, err
	}
	if len(payload.Artists) == 0 {
		return music.Album{}, music.AudioFeatures{}, &music.ShapeError{Entity: "album", Field: "artists"}
	}
	if len(payload.Images) < 2 {
		// Index 1 is the medium thumbnail used on detail pages.
		return music.Album{}, music.AudioFeatures{}, &music.ShapeError{Entity: "album", Field: "images"}
	}
	if len(payload.Tracks.Items) == 0 {
		return music.Album{}, music.AudioFeatures{}, &music.ShapeError{Entity: "album", Field: "tracks"}
	}

	artist, _, err := s.store.GetOrCreateArtist(ctx, payload.Artists[0].ID, payload.Artists[0].Name)
	if err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	imageURL := payload.Images[1].URL
	if err := s.store.CreateAlbum(ctx, id, payload.Name, artist.ID, imageURL); err != nil {
		if store.IsConflict(err) {
			return s.storedAlbum(ctx, id)
		}
		metrics.Materializations.WithLabelValues("album", "error").Inc()
		return music.Album{}, music.AudioFeatures{}, err
	}

	// Resolve every listed track before computing the aggregate; the
	// upstream listing order is preserved in the attached set.
	tracks := make([]music.Track, 0, len(payload.Tracks.Items))
	trackIDs := make([]string, 0, len(payload.Tracks.Items))
	featList := make([]music.AudioFeatures, 0, len(payload.Tracks.Items))
	for _, item := range payload.Tracks.Items {
		track, feats, err := s.ResolveTrack(ctx, token, item.ID)
		if err != nil {
			metrics.Materializations.WithLabelValues("album", "error").Inc()
			return music.Album{}, music.AudioFeatures{}, err
		}
		tracks = append(tracks, track)
		trackIDs = append(trackIDs, track.ID)
		featList = append(featList, feats)
	}
	if err := s.store.AttachAlbumTracks(ctx, id, trackIDs); err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}

	mean := music.MeanFeatures(featList)
	fid, err := s.store.CreateFeatures(ctx, mean)
	if err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	if err := s.store.LinkAlbumFeatures(ctx, id, fid); err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	feats, err := s.store.AlbumFeatures(ctx, id)
	if err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	metrics.Materializations.WithLabelValues("album", "miss").Inc()
	return music.Album{
		ID:       id,
		Name:     payload.Name,
		Artist:   artist,
		ImageURL: imageURL,
		Tracks:   tracks,
	}, feats, nil
}

func (s *Service) storedAlbum(ctx context.Context, id string) (music.Album, music.AudioFeatures, error) {
	album, err := s.store.GetAlbum(ctx, id)
	if err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	feats, err := s.store.AlbumFeatures(ctx, id)
	if err != nil {
		return music.Album{}, music.AudioFeatures{}, err
	}
	return album, feats, nil
}
