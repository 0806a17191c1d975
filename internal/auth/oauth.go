package auth

import (
	"encoding/base64"
	"log"
	"net/http"

	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
)

// StravaEndpoint is the OAuth2 endpoint for Strava.
var StravaEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.strava.com/oauth/authorize",
	TokenURL:  "https://www.strava.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const (
	sessionName = "strava-session"
	stateKey    = "oauth_state"
)

// NewOAuthConfig builds the oauth2 configuration for Strava.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	endpoint := StravaEndpoint
	if cfg.StravaAuthURL != "" {
		endpoint.AuthURL = cfg.StravaAuthURL
	}
	if cfg.StravaTokenURL != "" {
		endpoint.TokenURL = cfg.StravaTokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURL:  cfg.StravaCallbackURL,
		Scopes:       []string{"read,activity:read_all"},
		Endpoint:     endpoint,
	}
}

// Authenticator runs the browser OAuth flow used to bootstrap the token store.
type Authenticator struct {
	Client *Client
	Store  sessions.Store
}

// NewAuthenticator creates a new Authenticator instance.
func NewAuthenticator(client *Client, sessionSecret string) *Authenticator {
	cookies := sessions.NewCookieStore([]byte(sessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Authenticator{Client: client, Store: cookies}
}

// LoginHandler redirects the user to Strava for authentication.
func (a *Authenticator) LoginHandler(w http.ResponseWriter, r *http.Request) {
	key := securecookie.GenerateRandomKey(16)
	if key == nil {
		http.Error(w, "Could not generate state", http.StatusInternalServerError)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(key)

	session, _ := a.Store.Get(r, sessionName)
	session.Values[stateKey] = state
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to save session: %v", err)
		http.Error(w, "Could not save session", http.StatusInternalServerError)
		return
	}

	url := a.Client.Config.AuthCodeURL(state, oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("approval_prompt", "force"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// CallbackHandler handles the redirect from Strava, exchanges the code and
// stores the resulting refresh token.
func (a *Authenticator) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := a.Store.Get(r, sessionName)
	expected, _ := session.Values[stateKey].(string)
	if expected == "" || r.URL.Query().Get("state") != expected {
		http.Error(w, "State invalid", http.StatusBadRequest)
		return
	}
	delete(session.Values, stateKey)
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to clear session state: %v", err)
	}

	if reason := r.URL.Query().Get("error"); reason != "" {
		http.Error(w, "Authorization denied: "+reason, http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	pair, err := a.Client.ExchangeCode(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := a.Client.Seed(r.Context(), pair.RefreshToken); err != nil {
		log.Printf("Failed to store refresh token: %v", err)
		http.Error(w, "Failed to store refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("Stored refresh token from OAuth callback")
	w.Write([]byte("Authentication Successful!"))
}
