// Package store provides the persistence layer for cached catalog
// entities. It wraps a SQLite database and exposes create/get helpers for
// artists, tracks, albums and their audio feature links. Entities are
// keyed by their external catalog IDs and are never updated or deleted by
// the application; uniqueness is enforced at the schema level so duplicate
// materialization attempts surface as constraint conflicts the service can
// classify with IsConflict.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"Tune-Lens-Go/pkg/music"
)

// DB wraps a sql.DB connection and exposes the entity store helpers.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path, creating the file and the
// schema if they do not exist yet. The returned DB value is safe for use
// by concurrent request handlers.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS artists (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS tracks (id TEXT PRIMARY KEY, name TEXT NOT NULL, artist_id TEXT NOT NULL REFERENCES artists(id))`,
		`CREATE TABLE IF NOT EXISTS albums (id TEXT PRIMARY KEY, name TEXT NOT NULL, artist_id TEXT NOT NULL REFERENCES artists(id), image_url TEXT)`,
		`CREATE TABLE IF NOT EXISTS album_tracks (album_id TEXT NOT NULL REFERENCES albums(id), track_id TEXT NOT NULL REFERENCES tracks(id), position INTEGER NOT NULL, PRIMARY KEY(album_id, track_id))`,
		`CREATE TABLE IF NOT EXISTS features (id INTEGER PRIMARY KEY AUTOINCREMENT, danceability REAL, speechiness REAL, acousticness REAL, valence REAL, instrumentalness REAL, energy REAL, liveness REAL)`,
		`CREATE TABLE IF NOT EXISTS track_features (id INTEGER PRIMARY KEY AUTOINCREMENT, track_id TEXT NOT NULL UNIQUE REFERENCES tracks(id), features_id INTEGER NOT NULL REFERENCES features(id))`,
		`CREATE TABLE IF NOT EXISTS album_features (id INTEGER PRIMARY KEY AUTOINCREMENT, album_id TEXT NOT NULL UNIQUE REFERENCES albums(id), features_id INTEGER NOT NULL REFERENCES features(id))`,
	}
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init store: %w", err)
		}
	}
	return &DB{d}, nil
}

// IsConflict reports whether err is a SQLite uniqueness or other
// constraint violation, i.e. a concurrent request already created the row.
func IsConflict(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}

// GetOrCreateArtist inserts the artist if it does not exist and returns
// the stored row. The second return value reports whether a new row was
// created. When the ID already exists the stored name wins and the
// supplied one is discarded.
func (db *DB) GetOrCreateArtist(ctx context.Context, id, name string) (music.Artist, bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO artists(id, name) VALUES(?, ?) ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return music.Artist{}, false, fmt.Errorf("upsert artist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return music.Artist{}, false, err
	}
	a := music.Artist{ID: id}
	if err := db.QueryRowContext(ctx, `SELECT name FROM artists WHERE id=?`, id).Scan(&a.Name); err != nil {
		return music.Artist{}, false, fmt.Errorf("get artist: %w", err)
	}
	return a, n > 0, nil
}

// CreateTrack inserts a track row. The artist must already exist. A
// duplicate ID surfaces as a constraint error classifiable with IsConflict.
func (db *DB) CreateTrack(ctx context.Context, id, name, artistID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tracks(id, name, artist_id) VALUES(?, ?, ?)`, id, name, artistID)
	return err
}

// GetTrack returns the stored track with its artist. music.ErrNotFound is
// returned when the ID has not been materialized.
func (db *DB) GetTrack(ctx context.Context, id string) (music.Track, error) {
	var t music.Track
	err := db.QueryRowContext(ctx,
		`SELECT t.id, t.name, a.id, a.name FROM tracks t JOIN artists a ON t.artist_id=a.id WHERE t.id=?`,
		id).Scan(&t.ID, &t.Name, &t.Artist.ID, &t.Artist.Name)
	if err == sql.ErrNoRows {
		return music.Track{}, music.ErrNotFound
	}
	if err != nil {
		return music.Track{}, fmt.Errorf("get track: %w", err)
	}
	return t, nil
}

// CreateAlbum inserts an album row. An empty imageURL is stored as NULL.
func (db *DB) CreateAlbum(ctx context.Context, id, name, artistID, imageURL string) error {
	img := sql.NullString{String: imageURL, Valid: imageURL != ""}
	_, err := db.ExecContext(ctx,
		`INSERT INTO albums(id, name, artist_id, image_url) VALUES(?, ?, ?, ?)`, id, name, artistID, img)
	return err
}

// AttachAlbumTracks records the album's track set, preserving the order in
// which IDs are supplied. Re-attaching an existing pair is a no-op so the
// operation stays idempotent under concurrent materialization.
func (db *DB) AttachAlbumTracks(ctx context.Context, albumID string, trackIDs []string) error {
	for i, tid := range trackIDs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO album_tracks(album_id, track_id, position) VALUES(?, ?, ?) ON CONFLICT(album_id, track_id) DO NOTHING`,
			albumID, tid, i)
		if err != nil {
			return fmt.Errorf("attach album track: %w", err)
		}
	}
	return nil
}

// GetAlbum returns the stored album with its artist and tracks in the
// order recorded at materialization time. music.ErrNotFound is returned
// when the ID has not been materialized.
func (db *DB) GetAlbum(ctx context.Context, id string) (music.Album, error) {
	var al music.Album
	var img sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT al.id, al.name, al.image_url, a.id, a.name FROM albums al JOIN artists a ON al.artist_id=a.id WHERE al.id=?`,
		id).Scan(&al.ID, &al.Name, &img, &al.Artist.ID, &al.Artist.Name)
	if err == sql.ErrNoRows {
		return music.Album{}, music.ErrNotFound
	}
	if err != nil {
		return music.Album{}, fmt.Errorf("get album: %w", err)
	}
	al.ImageURL = img.String

	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.name, a.id, a.name FROM album_tracks at
		 JOIN tracks t ON at.track_id=t.id
		 JOIN artists a ON t.artist_id=a.id
		 WHERE at.album_id=? ORDER BY at.position`, id)
	if err != nil {
		return music.Album{}, fmt.Errorf("get album tracks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t music.Track
		if err := rows.Scan(&t.ID, &t.Name, &t.Artist.ID, &t.Artist.Name); err != nil {
			return music.Album{}, err
		}
		al.Tracks = append(al.Tracks, t)
	}
	return al, rows.Err()
}
