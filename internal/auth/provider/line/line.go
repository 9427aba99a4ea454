package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
)

const providerName = "line"

const (
	defaultAuthURL  = "https://access.line.me/oauth2/v2.1/authorize"
	defaultTokenURL = "https://api.line.me/oauth2/v2.1/token"
	defaultIssuer   = "https://access.line.me"
)

var (
	ErrNoIDToken = errors.New("line did not return id_token")
	ErrNoEmail   = errors.New("line id_token missing email claim")
)

// TokenExchangeError carries the provider's HTTP failure so the callback
// can serialize it into the redirect detail blob.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("line token exchange failed: status=%d body=%s", e.StatusCode, e.Body)
}

// VerificationError wraps id_token validation failures.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return "line id_token verification failed: " + e.Err.Error()
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Tokens is the raw token pair returned by the LINE token endpoint.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Provider implements the LINE Login flow. LINE id_tokens are signed
// HS256 with the channel secret, so verification needs no key discovery.
type Provider struct {
	channelID     string
	channelSecret string
	redirectURL   string

	authURL  string
	tokenURL string
	issuer   string

	httpClient *http.Client
}

type Option func(*Provider)

// WithEndpoints overrides the LINE endpoints. Test use only.
func WithEndpoints(authURL, tokenURL, issuer string) Option {
	return func(p *Provider) {
		p.authURL = authURL
		p.tokenURL = tokenURL
		p.issuer = issuer
	}
}

func New(channelID, channelSecret, redirectURL string, opts ...Option) (*Provider, error) {
	if channelID == "" || channelSecret == "" || redirectURL == "" {
		return nil, errors.New("line oauth config missing required fields")
	}

	p := &Provider{
		channelID:     channelID,
		channelSecret: channelSecret,
		redirectURL:   redirectURL,
		authURL:       defaultAuthURL,
		tokenURL:      defaultTokenURL,
		issuer:        defaultIssuer,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the LINE authorization URL. The email scope must be
// granted to the channel or the id_token carries no email claim.
func (p *Provider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.channelID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("state", state)
	q.Set("scope", "profile openid email")
	return p.authURL + "?" + q.Encode()
}

// Exchange trades the authorization code for tokens and decodes the
// identity claims from the id_token.
func (p *Provider) Exchange(ctx context.Context, code string) (*Tokens, *auth.Identity, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("client_id", p.channelID)
	form.Set("client_secret", p.channelSecret)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("line token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("line token response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &TokenExchangeError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, nil, fmt.Errorf("line token response parse failed: %w", err)
	}

	if tokens.IDToken == "" {
		return nil, nil, ErrNoIDToken
	}

	identity, err := p.decodeIDToken(tokens.IDToken)
	if err != nil {
		return nil, nil, err
	}

	return &tokens, identity, nil
}

type idTokenClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) decodeIDToken(raw string) (*auth.Identity, error) {
	var claims idTokenClaims

	token, err := jwt.ParseWithClaims(
		raw,
		&claims,
		func(t *jwt.Token) (any, error) {
			return []byte(p.channelSecret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.channelID),
	)
	if err != nil {
		return nil, &VerificationError{Err: err}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, &VerificationError{Err: errors.New("invalid claims")}
	}

	if claims.Email == "" {
		return nil, ErrNoEmail
	}

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  true, // LINE only returns emails it has verified
		DisplayName:    claims.Name,
		AvatarURL:      claims.Picture,
	}, nil
}
