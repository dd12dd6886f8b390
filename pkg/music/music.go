// Package music defines the domain model shared by the rest of the
// application: catalog entities persisted by the store, lightweight
// summaries mapped from upstream payloads for display, and the error
// taxonomy used across package boundaries. By depending on this package
// the store, catalog client and handlers stay decoupled from each other.
package music

// Artist is a catalog artist. Instances are immutable once created and
// unique per external ID.
type Artist struct {
	ID   string
	Name string
}

// Track is a catalog track with its owning artist. Tracks are created on
// first read and never mutated.
type Track struct {
	ID     string
	Name   string
	Artist Artist
}

// Album is a catalog album together with the tracks attached at creation
// time. ImageURL may be empty when the upstream entry carried no artwork.
type Album struct {
	ID       string
	Name     string
	Artist   Artist
	ImageURL string
	Tracks   []Track
}

// ArtistSummary is a display-only artist entry, e.g. a search match. It is
// mapped from upstream payloads and never persisted.
type ArtistSummary struct {
	ID       string
	Name     string
	ImageURL string
}

// AlbumSummary is a display-only album entry used by the new releases grid
// and artist pages.
type AlbumSummary struct {
	ID         string
	Name       string
	ArtistName string
	ImageURL   string
}

// ArtistDetail combines an artist with their album list for the artist page.
type ArtistDetail struct {
	Artist ArtistSummary
	Albums []AlbumSummary
}

// PlayedTrack is one entry of the user's listening history.
type PlayedTrack struct {
	TrackID    string
	Name       string
	ArtistName string
	PlayedAt   string
}

// SearchResult holds artist matches for a search query along with the total
// reported by upstream, which can exceed the page returned.
type SearchResult struct {
	Artists []ArtistSummary
	Total   int
}
