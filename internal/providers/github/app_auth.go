package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// GitHub rejects app JWTs that live longer than ten minutes.
const appJWTLifetime = 9 * time.Minute

// installationTokenSource exchanges a signed app JWT for an installation
// access token. Wrap it in oauth2.ReuseTokenSource so tokens are cached until
// they expire.
type installationTokenSource struct {
	appID          int64
	installationID int64
	key            *rsa.PrivateKey
	baseURL        *url.URL
	httpClient     *http.Client
	now            func() time.Time
}

func newInstallationTokenSource(appID, installationID int64, privateKeyPEM []byte, baseURL *url.URL) (*installationTokenSource, error) {
	if len(privateKeyPEM) == 0 {
		return nil, fmt.Errorf("github app private key is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse github app private key: %w", err)
	}

	return &installationTokenSource{
		appID:          appID,
		installationID: installationID,
		key:            key,
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: requestTimeout},
		now:            time.Now,
	}, nil
}

// appJWT signs the short-lived RS256 token that authenticates as the app.
func (s *installationTokenSource) appJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer: strconv.FormatInt(s.appID, 10),
		// Backdated to tolerate clock drift.
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}

// Token implements oauth2.TokenSource.
func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	signed, err := s.appJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to sign github app jwt: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	appClient := newClient(s.httpClient, s.baseURL).WithAuthToken(signed)
	token, _, err := appClient.Apps.CreateInstallationToken(ctx, s.installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", err)
	}

	return &oauth2.Token{
		AccessToken: token.GetToken(),
		Expiry:      token.GetExpiresAt().Time,
	}, nil
}

var _ oauth2.TokenSource = (*installationTokenSource)(nil)
