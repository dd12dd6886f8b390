package store

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// Driver failures are hard to provoke against a real file, so the query
// error paths are exercised with sqlmock.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return &DB{raw}, mock
}

func TestGetTrackQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT t.id").WillReturnError(errors.New("disk I/O error"))

	_, err := db.GetTrack(context.Background(), "T1")
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetOrCreateArtistInsertError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO artists").WillReturnError(errors.New("database is locked"))

	_, _, err := db.GetOrCreateArtist(context.Background(), "A1", "Artist")
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListTrackFeaturesQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT t.id").WillReturnError(errors.New("disk I/O error"))

	_, err := db.ListTrackFeatures(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIsConflictRejectsOtherErrors(t *testing.T) {
	if IsConflict(errors.New("plain")) {
		t.Error("plain error classified as conflict")
	}
	if IsConflict(nil) {
		t.Error("nil classified as conflict")
	}
}
