// Package handlers contains the HTTP handlers for Tune-Lens-Go. Pages are
// rendered server-side from the templates under ui/templates; a small JSON
// API mirrors the detail pages. Every catalog-backed route passes through
// the session gate, which redirects callers without a token to the OAuth
// login flow.
package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"

	"Tune-Lens-Go/pkg/music"
	"Tune-Lens-Go/pkg/store"
)

// tablePageSize caps the cached-entity table pages.
const tablePageSize = 10

// Library is the slice of the materialization service used by the
// handlers. It allows a fake implementation in tests.
type Library interface {
	ResolveTrack(ctx context.Context, token, id string) (music.Track, music.AudioFeatures, error)
	ResolveAlbum(ctx context.Context, token, id string) (music.Album, music.AudioFeatures, error)
	ArtistWithAlbums(ctx context.Context, token, id string) (music.ArtistDetail, error)
	SearchArtists(ctx context.Context, token, q string) (music.SearchResult, error)
	NewReleases(ctx context.Context, token string) ([]music.AlbumSummary, error)
	RecentlyPlayed(ctx context.Context, token string) ([]music.PlayedTrack, error)
	TracksTable(ctx context.Context, n int) ([]store.TrackWithFeatures, error)
	AlbumsTable(ctx context.Context, n int) ([]store.AlbumWithFeatures, error)
}

// Application bundles the dependencies shared by the HTTP handlers.
type Application struct {
	Library       Library
	Authenticator libspotify.Authenticator
	SignKey       []byte
	TemplateDir   string
	Log           *logrus.Entry
}

// render parses and executes one page template. Parsing per request keeps
// template edits visible without a restart.
func (app *Application) render(w http.ResponseWriter, name string, data any) {
	dir := app.TemplateDir
	if dir == "" {
		dir = "ui/templates"
	}
	tmpl, err := template.ParseFiles(filepath.Join(dir, name))
	if err != nil {
		app.Log.WithError(err).WithField("template", name).Error("parse template")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, data); err != nil {
		app.Log.WithError(err).WithField("template", name).Error("execute template")
	}
}

// httpError maps the shared error taxonomy onto responses. An expired or
// rejected token sends the caller back through the login flow; every other
// failure is a hard typed error, never a partial page.
func (app *Application) httpError(w http.ResponseWriter, r *http.Request, err error) {
	var shape *music.ShapeError
	var upstream *music.UpstreamError
	switch {
	case errors.Is(err, music.ErrUnauthorized):
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, music.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &shape):
		app.Log.WithError(err).Warn("upstream shape error")
		http.Error(w, shape.Error(), http.StatusBadGateway)
	case errors.As(err, &upstream):
		app.Log.WithError(err).Warn("upstream unavailable")
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
	default:
		app.Log.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Index shows the new releases grid.
func (app *Application) Index(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	releases, err := app.Library.NewReleases(r.Context(), token)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "index.html", map[string]any{"Releases": releases})
}

// RecentlyPlayed shows the user's listening history.
func (app *Application) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	played, err := app.Library.RecentlyPlayed(r.Context(), token)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "recently_played.html", map[string]any{"Played": played})
}

// TrackDetail materializes the track on first view and renders it with a
// bar chart of its audio features.
func (app *Application) TrackDetail(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	track, feats, err := app.Library.ResolveTrack(r.Context(), token, r.PathValue("id"))
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "track.html", map[string]any{
		"Track":        track,
		"Features":     feats,
		"Chart":        feats.Chart(),
		"FeatureNames": music.FeatureNames,
	})
}

// AlbumDetail materializes the album graph on first view and renders the
// track listing with the averaged feature chart.
func (app *Application) AlbumDetail(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	album, feats, err := app.Library.ResolveAlbum(r.Context(), token, r.PathValue("id"))
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "album.html", map[string]any{
		"Album":        album,
		"Features":     feats,
		"Chart":        feats.Chart(),
		"FeatureNames": music.FeatureNames,
	})
}

// ArtistDetail shows an artist and their albums straight from upstream.
func (app *Application) ArtistDetail(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	detail, err := app.Library.ArtistWithAlbums(r.Context(), token, r.PathValue("id"))
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "artist.html", detail)
}

// TracksTable lists cached tracks with their stored features.
func (app *Application) TracksTable(w http.ResponseWriter, r *http.Request) {
	rows, err := app.Library.TracksTable(r.Context(), tablePageSize)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "tracks_table.html", map[string]any{"Rows": rows})
}

// AlbumsTable lists cached albums with their averaged features.
func (app *Application) AlbumsTable(w http.ResponseWriter, r *http.Request) {
	rows, err := app.Library.AlbumsTable(r.Context(), tablePageSize)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "albums_table.html", map[string]any{"Rows": rows})
}

// Search renders artist matches for the q query parameter.
func (app *Application) Search(w http.ResponseWriter, r *http.Request) {
	token, ok := app.requireSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	result, err := app.Library.SearchArtists(r.Context(), token, q)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	app.render(w, "search.html", map[string]any{"Query": q, "Result": result})
}
