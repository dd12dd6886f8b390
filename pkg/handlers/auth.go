// Session gate and OAuth endpoints. The bearer token obtained from the
// authorization-code exchange is stored client-side in an HMAC-signed
// cookie; the gate only checks that a token is present and untampered,
// token validity is upstream's concern. Callers without a session are
// redirected into the login flow rather than served an error.

package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const (
	tokenCookie = "spotify_token"
	userCookie  = "spotify_user_id"
	stateCookie = "oauth_state"
)

// signValue appends an HMAC signature to value using the format
// value|signature so tampering with the cookie is detectable.
func signValue(value string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return value + "|" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifyValue checks the signature appended by signValue and returns the
// original value when it matches.
func verifyValue(signed string, key []byte) (string, bool) {
	parts := strings.Split(signed, "|")
	if len(parts) != 2 {
		return "", false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(parts[0]))
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !hmac.Equal(mac.Sum(nil), sig) {
		return "", false
	}
	return parts[0], true
}

// encodeToken signs and encodes the OAuth token for cookie storage.
func (app *Application) encodeToken(t *oauth2.Token, secure bool) *http.Cookie {
	b, _ := json.Marshal(t)
	return &http.Cookie{
		Name:     tokenCookie,
		Value:    signValue(base64.StdEncoding.EncodeToString(b), app.SignKey),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// decodeToken converts the base64 encoded JSON token from the cookie back
// into an oauth2.Token.
func decodeToken(v string) (*oauth2.Token, error) {
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, err
	}
	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// sessionToken extracts the verified bearer token from the request cookie.
func (app *Application) sessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(tokenCookie)
	if err != nil {
		return "", false
	}
	v, ok := verifyValue(c.Value, app.SignKey)
	if !ok {
		return "", false
	}
	t, err := decodeToken(v)
	if err != nil || t.AccessToken == "" {
		return "", false
	}
	return t.AccessToken, true
}

// requireSession is the session gate. It returns the bearer token when one
// is present and redirects to the login flow otherwise.
func (app *Application) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := app.sessionToken(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return "", false
	}
	return token, true
}

// Login begins the OAuth flow, storing a signed random state value in a
// cookie before redirecting to the authorization URL.
func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    signValue(state, app.SignKey),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, app.Authenticator.AuthURL(state), http.StatusFound)
}

// OAuthCallback completes the flow by exchanging the authorization code
// for a token, which is stored in the signed session cookie together with
// the account ID.
func (app *Application) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	state, ok := verifyValue(c.Value, app.SignKey)
	if !ok || r.URL.Query().Get("state") != state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

	token, err := app.Authenticator.Token(state, r)
	if err != nil {
		app.Log.WithError(err).Error("token exchange failed")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, app.encodeToken(token, r.TLS != nil))

	client := app.Authenticator.NewClient(token)
	if user, err := client.CurrentUser(); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     userCookie,
			Value:    signValue(user.ID, app.SignKey),
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		app.Log.WithField("user", user.ID).Info("user signed in")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout expires the session cookies so the user must re-authenticate.
func (app *Application) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{tokenCookie, userCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
