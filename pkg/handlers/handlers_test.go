package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"
	"golang.org/x/oauth2"

	"Tune-Lens-Go/pkg/music"
	"Tune-Lens-Go/pkg/store"
)

// fakeLibrary returns canned values, or err from every method when set.
type fakeLibrary struct {
	track    music.Track
	album    music.Album
	features music.AudioFeatures
	detail   music.ArtistDetail
	result   music.SearchResult
	releases []music.AlbumSummary
	played   []music.PlayedTrack
	trackRow []store.TrackWithFeatures
	albumRow []store.AlbumWithFeatures
	err      error
}

func (f *fakeLibrary) ResolveTrack(_ context.Context, _, _ string) (music.Track, music.AudioFeatures, error) {
	return f.track, f.features, f.err
}

func (f *fakeLibrary) ResolveAlbum(_ context.Context, _, _ string) (music.Album, music.AudioFeatures, error) {
	return f.album, f.features, f.err
}

func (f *fakeLibrary) ArtistWithAlbums(_ context.Context, _, _ string) (music.ArtistDetail, error) {
	return f.detail, f.err
}

func (f *fakeLibrary) SearchArtists(_ context.Context, _, _ string) (music.SearchResult, error) {
	return f.result, f.err
}

func (f *fakeLibrary) NewReleases(_ context.Context, _ string) ([]music.AlbumSummary, error) {
	return f.releases, f.err
}

func (f *fakeLibrary) RecentlyPlayed(_ context.Context, _ string) ([]music.PlayedTrack, error) {
	return f.played, f.err
}

func (f *fakeLibrary) TracksTable(_ context.Context, _ int) ([]store.TrackWithFeatures, error) {
	return f.trackRow, f.err
}

func (f *fakeLibrary) AlbumsTable(_ context.Context, _ int) ([]store.AlbumWithFeatures, error) {
	return f.albumRow, f.err
}

func newTestApp(lib Library) *Application {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Application{
		Library:       lib,
		Authenticator: libspotify.NewAuthenticator("http://localhost/callback", libspotify.ScopeUserReadPrivate),
		SignKey:       []byte("test-signing-key"),
		TemplateDir:   "../../ui/templates",
		Log:           logrus.NewEntry(logger),
	}
}

// sessionCookie builds a valid signed token cookie for requests.
func sessionCookie(app *Application) *http.Cookie {
	return app.encodeToken(&oauth2.Token{AccessToken: "tok"}, false)
}

func TestRequireSessionRedirectsToLogin(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	app.Index(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("unexpected redirect target %q", loc)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(sessionCookie(app))

	token, ok := app.sessionToken(r)
	if !ok {
		t.Fatal("valid cookie rejected")
	}
	if token != "tok" {
		t.Errorf("unexpected token %q", token)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	c := sessionCookie(app)
	c.Value = "x" + c.Value
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)

	if _, ok := app.sessionToken(r); ok {
		t.Error("tampered cookie accepted")
	}
}

func TestIndexRenders(t *testing.T) {
	app := newTestApp(&fakeLibrary{
		releases: []music.AlbumSummary{{ID: "AL1", Name: "Fresh Album", ArtistName: "Artist"}},
	})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.Index(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Fresh Album") {
		t.Error("release name missing from page")
	}
}

func TestTrackDetailRendersChart(t *testing.T) {
	app := newTestApp(&fakeLibrary{
		track:    music.Track{ID: "T1", Name: "Some Song", Artist: music.Artist{ID: "A1", Name: "Artist"}},
		features: music.AudioFeatures{Danceability: 0.5},
	})
	r := httptest.NewRequest(http.MethodGet, "/track/T1", nil)
	r.SetPathValue("id", "T1")
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.TrackDetail(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Some Song") {
		t.Error("track name missing from page")
	}
	if !strings.Contains(body, `value="50"`) {
		t.Error("chart value missing from page")
	}
}

func TestAlbumDetailRenders(t *testing.T) {
	app := newTestApp(&fakeLibrary{
		album: music.Album{
			ID:     "AL1",
			Name:   "Some Album",
			Artist: music.Artist{ID: "A1", Name: "Artist"},
			Tracks: []music.Track{{ID: "T1", Name: "One"}},
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/album/AL1", nil)
	r.SetPathValue("id", "AL1")
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.AlbumDetail(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Some Album") {
		t.Error("album name missing from page")
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", music.ErrUnauthorized, http.StatusFound},
		{"not found", music.ErrNotFound, http.StatusNotFound},
		{"shape", &music.ShapeError{Entity: "album", Field: "tracks"}, http.StatusBadGateway},
		{"upstream", &music.UpstreamError{Endpoint: "track", Status: 503}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&fakeLibrary{err: tc.err})
			r := httptest.NewRequest(http.MethodGet, "/track/T1", nil)
			r.SetPathValue("id", "T1")
			r.AddCookie(sessionCookie(app))
			w := httptest.NewRecorder()

			app.TrackDetail(w, r)

			if w.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestTablesSkipSessionGate(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/tracks", nil)
	w := httptest.NewRecorder()

	app.TracksTable(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 without a session, got %d", w.Code)
	}
}

func TestTrackJSONUnauthorized(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/api/track/T1", nil)
	r.SetPathValue("id", "T1")
	w := httptest.NewRecorder()

	app.TrackJSON(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var doc map[string]string
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc["error"] == "" {
		t.Error("expected error document")
	}
}

func TestTrackJSON(t *testing.T) {
	app := newTestApp(&fakeLibrary{
		track:    music.Track{ID: "T1", Name: "Song", Artist: music.Artist{Name: "Artist"}},
		features: music.AudioFeatures{Danceability: 0.25, Energy: 0.5},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/track/T1", nil)
	r.SetPathValue("id", "T1")
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.TrackJSON(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var doc struct {
		ID       string      `json:"id"`
		Artist   string      `json:"artist"`
		Features featuresDoc `json:"features"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "T1" || doc.Artist != "Artist" {
		t.Errorf("unexpected doc %+v", doc)
	}
	if len(doc.Features.Chart) != 7 || doc.Features.Chart[0] != 25 {
		t.Errorf("unexpected chart %v", doc.Features.Chart)
	}
}

func TestAlbumJSON(t *testing.T) {
	app := newTestApp(&fakeLibrary{
		album: music.Album{
			ID:     "AL1",
			Name:   "Album",
			Artist: music.Artist{Name: "Artist"},
			Tracks: []music.Track{{ID: "T1", Name: "One", Artist: music.Artist{Name: "Artist"}}},
		},
		features: music.AudioFeatures{Valence: 0.75},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/album/AL1", nil)
	r.SetPathValue("id", "AL1")
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.AlbumJSON(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var doc struct {
		Tracks   []map[string]string `json:"tracks"`
		Features featuresDoc         `json:"features"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Tracks) != 1 || doc.Tracks[0]["id"] != "T1" {
		t.Errorf("unexpected tracks %v", doc.Tracks)
	}
	if doc.Features.Valence != 0.75 {
		t.Errorf("unexpected features %+v", doc.Features)
	}
}

func TestLoginSetsStateCookie(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()

	app.Login(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookie {
			v, ok := verifyValue(c.Value, app.SignKey)
			if !ok {
				t.Fatal("state cookie not verifiable")
			}
			state = v
		}
	}
	if state == "" {
		t.Fatal("state cookie missing")
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "state="+state) {
		t.Errorf("auth URL missing state: %q", loc)
	}
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/callback?state=other", nil)
	r.AddCookie(&http.Cookie{Name: stateCookie, Value: signValue("expected", app.SignKey)})
	w := httptest.NewRecorder()

	app.OAuthCallback(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLogoutExpiresSession(t *testing.T) {
	app := newTestApp(&fakeLibrary{})
	r := httptest.NewRequest(http.MethodGet, "/logout", nil)
	r.AddCookie(sessionCookie(app))
	w := httptest.NewRecorder()

	app.Logout(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("unexpected redirect %q", loc)
	}
	expired := 0
	for _, c := range w.Result().Cookies() {
		if (c.Name == tokenCookie || c.Name == userCookie) && c.MaxAge < 0 {
			expired++
		}
	}
	if expired != 2 {
		t.Errorf("expected both session cookies expired, got %d", expired)
	}
}
