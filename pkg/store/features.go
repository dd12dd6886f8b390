package store

import (
	"context"
	"database/sql"
	"fmt"

	"Tune-Lens-Go/pkg/music"
)

// CreateFeatures inserts one audio feature record and returns its
// surrogate ID. Values are expected to be pre-rounded to three decimals.
func (db *DB) CreateFeatures(ctx context.Context, f music.AudioFeatures) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO features(danceability, speechiness, acousticness, valence, instrumentalness, energy, liveness)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		f.Danceability, f.Speechiness, f.Acousticness, f.Valence, f.Instrumentalness, f.Energy, f.Liveness)
	if err != nil {
		return 0, fmt.Errorf("insert features: %w", err)
	}
	return res.LastInsertId()
}

// LinkTrackFeatures associates a features record with a track. At most one
// link per track exists; linking an already linked track is a no-op so two
// racing materializations of the same ID converge on a single link.
func (db *DB) LinkTrackFeatures(ctx context.Context, trackID string, featuresID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO track_features(track_id, features_id) VALUES(?, ?) ON CONFLICT(track_id) DO NOTHING`,
		trackID, featuresID)
	return err
}

// LinkAlbumFeatures associates a features record with an album, with the
// same at-most-one semantics as LinkTrackFeatures.
func (db *DB) LinkAlbumFeatures(ctx context.Context, albumID string, featuresID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO album_features(album_id, features_id) VALUES(?, ?) ON CONFLICT(album_id) DO NOTHING`,
		albumID, featuresID)
	return err
}

const featureCols = `f.danceability, f.speechiness, f.acousticness, f.valence, f.instrumentalness, f.energy, f.liveness`

func scanFeatures(row interface{ Scan(...any) error }, f *music.AudioFeatures) error {
	return row.Scan(&f.Danceability, &f.Speechiness, &f.Acousticness, &f.Valence,
		&f.Instrumentalness, &f.Energy, &f.Liveness)
}

// TrackFeatures returns the features linked to the given track.
// music.ErrNotMaterialized is returned when no link exists, which means
// the track row was stored without completing feature materialization.
func (db *DB) TrackFeatures(ctx context.Context, trackID string) (music.AudioFeatures, error) {
	var f music.AudioFeatures
	err := scanFeatures(db.QueryRowContext(ctx,
		`SELECT `+featureCols+` FROM track_features tf JOIN features f ON tf.features_id=f.id WHERE tf.track_id=?`,
		trackID), &f)
	if err == sql.ErrNoRows {
		return music.AudioFeatures{}, music.ErrNotMaterialized
	}
	if err != nil {
		return music.AudioFeatures{}, fmt.Errorf("track features: %w", err)
	}
	return f, nil
}

// AlbumFeatures returns the aggregated features linked to the given album,
// or music.ErrNotMaterialized when the link is missing.
func (db *DB) AlbumFeatures(ctx context.Context, albumID string) (music.AudioFeatures, error) {
	var f music.AudioFeatures
	err := scanFeatures(db.QueryRowContext(ctx,
		`SELECT `+featureCols+` FROM album_features af JOIN features f ON af.features_id=f.id WHERE af.album_id=?`,
		albumID), &f)
	if err == sql.ErrNoRows {
		return music.AudioFeatures{}, music.ErrNotMaterialized
	}
	if err != nil {
		return music.AudioFeatures{}, fmt.Errorf("album features: %w", err)
	}
	return f, nil
}

// TrackWithFeatures pairs a cached track with its feature record for the
// tracks table page.
type TrackWithFeatures struct {
	Track    music.Track
	Features music.AudioFeatures
}

// AlbumWithFeatures pairs a cached album (without its track listing) with
// its aggregated features for the albums table page.
type AlbumWithFeatures struct {
	Album    music.Album
	Features music.AudioFeatures
}

// ListTrackFeatures returns up to limit cached tracks together with their
// features, oldest first.
func (db *DB) ListTrackFeatures(ctx context.Context, limit int) ([]TrackWithFeatures, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.name, a.id, a.name, `+featureCols+`
		 FROM track_features tf
		 JOIN tracks t ON tf.track_id=t.id
		 JOIN artists a ON t.artist_id=a.id
		 JOIN features f ON tf.features_id=f.id
		 ORDER BY tf.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list track features: %w", err)
	}
	defer rows.Close()
	var out []TrackWithFeatures
	for rows.Next() {
		var tw TrackWithFeatures
		if err := rows.Scan(&tw.Track.ID, &tw.Track.Name, &tw.Track.Artist.ID, &tw.Track.Artist.Name,
			&tw.Features.Danceability, &tw.Features.Speechiness, &tw.Features.Acousticness,
			&tw.Features.Valence, &tw.Features.Instrumentalness, &tw.Features.Energy,
			&tw.Features.Liveness); err != nil {
			return nil, err
		}
		out = append(out, tw)
	}
	return out, rows.Err()
}

// ListAlbumFeatures returns up to limit cached albums together with their
// aggregated features, oldest first.
func (db *DB) ListAlbumFeatures(ctx context.Context, limit int) ([]AlbumWithFeatures, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT al.id, al.name, al.image_url, a.id, a.name, `+featureCols+`
		 FROM album_features af
		 JOIN albums al ON af.album_id=al.id
		 JOIN artists a ON al.artist_id=a.id
		 JOIN features f ON af.features_id=f.id
		 ORDER BY af.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list album features: %w", err)
	}
	defer rows.Close()
	var out []AlbumWithFeatures
	for rows.Next() {
		var aw AlbumWithFeatures
		var img sql.NullString
		if err := rows.Scan(&aw.Album.ID, &aw.Album.Name, &img, &aw.Album.Artist.ID, &aw.Album.Artist.Name,
			&aw.Features.Danceability, &aw.Features.Speechiness, &aw.Features.Acousticness,
			&aw.Features.Valence, &aw.Features.Instrumentalness, &aw.Features.Energy,
			&aw.Features.Liveness); err != nil {
			return nil, err
		}
		aw.Album.ImageURL = img.String
		out = append(out, aw)
	}
	return out, rows.Err()
}
