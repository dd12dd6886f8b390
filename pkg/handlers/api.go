// JSON API endpoints mirroring the detail pages, used by the frontend
// chart script. Responses are plain snake_case documents; errors share the
// page handlers' status mapping but are emitted as JSON.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"Tune-Lens-Go/pkg/music"
)

type featuresDoc struct {
	Danceability     float64 `json:"danceability"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Valence          float64 `json:"valence"`
	Instrumentalness float64 `json:"instrumentalness"`
	Energy           float64 `json:"energy"`
	Liveness         float64 `json:"liveness"`
	Chart            []int   `json:"chart"`
}

func toFeaturesDoc(f music.AudioFeatures) featuresDoc {
	return featuresDoc{
		Danceability:     f.Danceability,
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Valence:          f.Valence,
		Instrumentalness: f.Instrumentalness,
		Energy:           f.Energy,
		Liveness:         f.Liveness,
		Chart:            f.Chart(),
	}
}

// writeJSON encodes v with the proper content type. Encoding failures are
// logged; headers are already written at that point.
func (app *Application) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Log.WithError(err).Error("encode response")
	}
}

// respondJSONError emits an error document with the given status.
func respondJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// jsonError maps the error taxonomy onto JSON responses. Unlike the page
// handlers, a missing or rejected token yields 401 rather than a redirect.
func (app *Application) jsonError(w http.ResponseWriter, err error) {
	var shape *music.ShapeError
	var upstream *music.UpstreamError
	switch {
	case errors.Is(err, music.ErrUnauthorized):
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, music.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "not found")
	case errors.As(err, &shape):
		respondJSONError(w, http.StatusBadGateway, shape.Error())
	case errors.As(err, &upstream):
		respondJSONError(w, http.StatusBadGateway, "catalog unavailable")
	default:
		app.Log.WithError(err).Error("api request failed")
		respondJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// TrackJSON returns a materialized track with its features.
func (app *Application) TrackJSON(w http.ResponseWriter, r *http.Request) {
	token, ok := app.sessionToken(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	track, feats, err := app.Library.ResolveTrack(r.Context(), token, r.PathValue("id"))
	if err != nil {
		app.jsonError(w, err)
		return
	}
	app.writeJSON(w, map[string]any{
		"id":       track.ID,
		"name":     track.Name,
		"artist":   track.Artist.Name,
		"features": toFeaturesDoc(feats),
	})
}

// AlbumJSON returns a materialized album with its averaged features.
func (app *Application) AlbumJSON(w http.ResponseWriter, r *http.Request) {
	token, ok := app.sessionToken(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	album, feats, err := app.Library.ResolveAlbum(r.Context(), token, r.PathValue("id"))
	if err != nil {
		app.jsonError(w, err)
		return
	}
	tracks := make([]map[string]string, len(album.Tracks))
	for i, t := range album.Tracks {
		tracks[i] = map[string]string{"id": t.ID, "name": t.Name, "artist": t.Artist.Name}
	}
	app.writeJSON(w, map[string]any{
		"id":        album.ID,
		"name":      album.Name,
		"artist":    album.Artist.Name,
		"image_url": album.ImageURL,
		"tracks":    tracks,
		"features":  toFeaturesDoc(feats),
	})
}

// SearchJSON returns artist matches for the q query parameter.
func (app *Application) SearchJSON(w http.ResponseWriter, r *http.Request) {
	token, ok := app.sessionToken(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	result, err := app.Library.SearchArtists(r.Context(), token, r.URL.Query().Get("q"))
	if err != nil {
		app.jsonError(w, err)
		return
	}
	artists := make([]map[string]string, len(result.Artists))
	for i, a := range result.Artists {
		artists[i] = map[string]string{"id": a.ID, "name": a.Name, "image_url": a.ImageURL}
	}
	app.writeJSON(w, map[string]any{"artists": artists, "total": result.Total})
}
