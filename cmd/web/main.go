// Command web starts the Tune-Lens-Go HTTP server. Configuration comes
// from environment variables (a local .env file is honoured when present):
// SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, SPOTIFY_REDIRECT_URL,
// SIGNING_KEY, DATABASE_PATH, ADDR and LOG_LEVEL. The server renders HTML
// pages, serves a small JSON API and exposes prometheus metrics.

package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"

	"Tune-Lens-Go/pkg/catalog"
	"Tune-Lens-Go/pkg/handlers"
	"Tune-Lens-Go/pkg/library"
	"Tune-Lens-Go/pkg/store"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newMux registers the application routes.
func newMux(app *handlers.Application) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", app.Index)
	mux.HandleFunc("/recently-played", app.RecentlyPlayed)
	mux.HandleFunc("/track/{id}", app.TrackDetail)
	mux.HandleFunc("/album/{id}", app.AlbumDetail)
	mux.HandleFunc("/artist/{id}", app.ArtistDetail)
	mux.HandleFunc("/tracks", app.TracksTable)
	mux.HandleFunc("/albums", app.AlbumsTable)
	mux.HandleFunc("/search", app.Search)
	mux.HandleFunc("/login", app.Login)
	mux.HandleFunc("/callback", app.OAuthCallback)
	mux.HandleFunc("/logout", app.Logout)
	mux.HandleFunc("/api/track/{id}", app.TrackJSON)
	mux.HandleFunc("/api/album/{id}", app.AlbumJSON)
	mux.HandleFunc("/api/search", app.SearchJSON)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("./ui/static"))))
	return mux
}

func main() {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}
	log := logrus.NewEntry(logger)

	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		logger.Fatal("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	signingKey := os.Getenv("SIGNING_KEY")
	if signingKey == "" {
		logger.Fatal("SIGNING_KEY must be set")
	}
	// The redirect URL must match the one registered in the developer
	// dashboard; the default suits local development.
	redirectURL := getenv("SPOTIFY_REDIRECT_URL", "http://localhost:4000/callback")

	auth := libspotify.NewAuthenticator(redirectURL,
		libspotify.ScopeUserReadPrivate,
		libspotify.ScopeUserReadRecentlyPlayed,
	)
	auth.SetAuthInfo(clientID, clientSecret)

	db, err := store.New(getenv("DATABASE_PATH", "tunelens.db"))
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer db.Close()

	client := catalog.NewClient(nil, catalog.DefaultBaseURL)
	svc := library.NewService(db, client, log)

	app := &handlers.Application{
		Library:       svc,
		Authenticator: auth,
		SignKey:       []byte(signingKey),
		Log:           log,
	}

	addr := getenv("ADDR", ":4000")
	handler := handlers.SecurityHeaders(handlers.RequestLogging(log, newMux(app)))
	logger.WithField("addr", addr).Info("starting server")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.WithError(err).Fatal("http server")
	}
}
