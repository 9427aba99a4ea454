package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testChannelID     = "1234567890"
	testChannelSecret = "test-channel-secret"
)

func signIDToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func baseClaims(issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   issuer,
		"sub":   "U4af4980629",
		"aud":   testChannelID,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"name":  "Taro Example",
		"email": "taro@example.com",
	}
}

// tokenServer fakes the LINE token endpoint. respond builds the JSON body
// for each exchange.
func tokenServer(t *testing.T, respond func(r *http.Request) (int, map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, testChannelID, r.PostForm.Get("client_id"))

		status, body := respond(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := New(testChannelID, testChannelSecret, "http://localhost:8080/auth/callback/line",
		WithEndpoints(srv.URL+"/authorize", srv.URL, srv.URL))
	require.NoError(t, err)
	return p
}

func TestExchangeDecodesIdentity(t *testing.T) {
	var srv *httptest.Server
	srv = tokenServer(t, func(*http.Request) (int, map[string]any) {
		return http.StatusOK, map[string]any{
			"access_token": "at",
			"id_token":     signIDToken(t, testChannelSecret, baseClaims(srv.URL)),
			"token_type":   "Bearer",
			"expires_in":   2592000,
		}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	tokens, identity, err := p.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "at", tokens.AccessToken)
	require.Equal(t, "line", identity.Provider)
	require.Equal(t, "U4af4980629", identity.ProviderUserID)
	require.Equal(t, "taro@example.com", identity.Email)
	require.True(t, identity.EmailVerified)
	require.Equal(t, "Taro Example", identity.DisplayName)
}

func TestExchangeTokenEndpointFailure(t *testing.T) {
	srv := tokenServer(t, func(*http.Request) (int, map[string]any) {
		return http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "authorization code expired",
		}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, _, err := p.Exchange(context.Background(), "stale-code")
	var xchg *TokenExchangeError
	require.ErrorAs(t, err, &xchg)
	require.Equal(t, http.StatusBadRequest, xchg.StatusCode)
	require.Contains(t, xchg.Body, "invalid_grant")
}

func TestExchangeMissingIDToken(t *testing.T) {
	srv := tokenServer(t, func(*http.Request) (int, map[string]any) {
		return http.StatusOK, map[string]any{"access_token": "at"}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, _, err := p.Exchange(context.Background(), "code-1")
	require.ErrorIs(t, err, ErrNoIDToken)
}

func TestExchangeMissingEmailClaim(t *testing.T) {
	var srv *httptest.Server
	srv = tokenServer(t, func(*http.Request) (int, map[string]any) {
		claims := baseClaims(srv.URL)
		delete(claims, "email")
		return http.StatusOK, map[string]any{
			"access_token": "at",
			"id_token":     signIDToken(t, testChannelSecret, claims),
		}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, _, err := p.Exchange(context.Background(), "code-1")
	require.ErrorIs(t, err, ErrNoEmail)
}

func TestExchangeRejectsWrongSignature(t *testing.T) {
	var srv *httptest.Server
	srv = tokenServer(t, func(*http.Request) (int, map[string]any) {
		return http.StatusOK, map[string]any{
			"access_token": "at",
			"id_token":     signIDToken(t, "some-other-secret", baseClaims(srv.URL)),
		}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, _, err := p.Exchange(context.Background(), "code-1")
	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
}

func TestExchangeRejectsWrongAudience(t *testing.T) {
	var srv *httptest.Server
	srv = tokenServer(t, func(*http.Request) (int, map[string]any) {
		claims := baseClaims(srv.URL)
		claims["aud"] = "another-channel"
		return http.StatusOK, map[string]any{
			"access_token": "at",
			"id_token":     signIDToken(t, testChannelSecret, claims),
		}
	})
	defer srv.Close()

	p := newTestProvider(t, srv)

	_, _, err := p.Exchange(context.Background(), "code-1")
	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, verr.Err, jwt.ErrTokenInvalidAudience)
}

func TestAuthCodeURLCarriesEmailScope(t *testing.T) {
	p, err := New(testChannelID, testChannelSecret, "http://localhost:8080/auth/callback/line")
	require.NoError(t, err)

	u := p.AuthCodeURL("state-1")
	require.Contains(t, u, "scope=profile+openid+email")
	require.Contains(t, u, "state=state-1")
	require.Contains(t, u, "client_id="+testChannelID)
}
