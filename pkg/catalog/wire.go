package catalog

// Wire types mirroring the upstream JSON payloads. Only the fields the
// application reads are declared; everything else is ignored on decode.
// Shape validation (missing artists, too few images) happens in the
// library service, not here.

// ArtistRef is the embedded artist object carried by tracks and albums.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Image is one entry of an upstream image list. Entries are ordered
// largest first; index 1 is the medium thumbnail.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrackPayload is the response of GET /tracks/{id} and the track object
// embedded in album listings and play history.
type TrackPayload struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []ArtistRef `json:"artists"`
}

// FeaturesPayload is the response of GET /audio-features/{id}.
type FeaturesPayload struct {
	Danceability     float64 `json:"danceability"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Valence          float64 `json:"valence"`
	Instrumentalness float64 `json:"instrumentalness"`
	Energy           float64 `json:"energy"`
	Liveness         float64 `json:"liveness"`
}

// AlbumPayload is the response of GET /albums/{id}. The track listing is
// embedded as a paged container of simplified tracks.
type AlbumPayload struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []ArtistRef `json:"artists"`
	Images  []Image     `json:"images"`
	Tracks  struct {
		Items []TrackPayload `json:"items"`
	} `json:"tracks"`
}

// ArtistPayload is the response of GET /artists/{id} and the full artist
// object returned by search.
type ArtistPayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// AlbumItem is a simplified album entry as returned by the new-releases
// browse endpoint and artist album listings.
type AlbumItem struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []ArtistRef `json:"artists"`
	Images  []Image     `json:"images"`
}

// PlayHistoryItem is one entry of GET /me/player/recently-played.
type PlayHistoryItem struct {
	Track    TrackPayload `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// ArtistPage holds one page of artist search matches plus the total number
// of matches reported by upstream.
type ArtistPage struct {
	Items []ArtistPayload `json:"items"`
	Total int             `json:"total"`
}

type albumListing struct {
	Items []AlbumItem `json:"items"`
}

type newReleasesPayload struct {
	Albums albumListing `json:"albums"`
}

type historyPayload struct {
	Items []PlayHistoryItem `json:"items"`
}

type searchPayload struct {
	Artists ArtistPage `json:"artists"`
}
