package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prreview/internal/providers"
)

func newTestProvider(t *testing.T, mux *http.ServeMux) *GitHubProvider {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	return NewWithClient(newClient(server.Client(), baseURL))
}

func TestGetPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"number":42,"title":"Add widgets","html_url":"https://github.com/acme/widgets/pull/42","head":{"sha":"abc123"}}`)
	})
	p := newTestProvider(t, mux)

	pr, err := p.GetPullRequest(context.Background(), "acme/widgets", 42)
	require.NoError(t, err)
	assert.Equal(t, &providers.PullRequest{
		Number:  42,
		Title:   "Add widgets",
		HeadSHA: "abc123",
		URL:     "https://github.com/acme/widgets/pull/42",
	}, pr)
}

func TestGetPullRequestInvalidRepository(t *testing.T) {
	p := newTestProvider(t, http.NewServeMux())

	_, err := p.GetPullRequest(context.Background(), "widgets", 42)
	require.Error(t, err)
}

func TestListChangedFilesFollowsPagination(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/widgets/pulls/42/files?page=2&per_page=100>; rel="next"`, serverURL))
			fmt.Fprint(w, `[{"filename":"a.py","status":"modified"},{"filename":"b.py","status":"removed"}]`)
		case "2":
			fmt.Fprint(w, `[{"filename":"c.py","status":"added"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	p := NewWithClient(newClient(server.Client(), baseURL))

	files, err := p.ListChangedFiles(context.Background(), "acme/widgets", 42)
	require.NoError(t, err)
	assert.Equal(t, []providers.ChangedFile{
		{Filename: "a.py", Status: providers.FileModified},
		{Filename: "b.py", Status: providers.FileRemoved},
		{Filename: "c.py", Status: providers.FileAdded},
	}, files)
}

func TestListChangedFilesError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Server Error"}`, http.StatusInternalServerError)
	})
	p := newTestProvider(t, mux)

	_, err := p.ListChangedFiles(context.Background(), "acme/widgets", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list PR files")
}

func TestGetFileContent(t *testing.T) {
	source := "def add(a, b):\n    return a + b\n"
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/src/add.py", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","path":"src/add.py","content":%q}`,
			base64.StdEncoding.EncodeToString([]byte(source)))
	})
	p := newTestProvider(t, mux)

	content, err := p.GetFileContent(context.Background(), "acme/widgets", "abc123", "src/add.py")
	require.NoError(t, err)
	assert.Equal(t, source, string(content))
}

func TestGetFileContentErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/missing.py", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/repos/acme/widgets/contents/src", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"add.py","path":"src/add.py"}]`)
	})
	mux.HandleFunc("/repos/acme/widgets/contents/huge.bin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"file","encoding":"none","path":"huge.bin","content":""}`)
	})
	p := newTestProvider(t, mux)

	_, err := p.GetFileContent(context.Background(), "acme/widgets", "main", "missing.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	_, err = p.GetFileContent(context.Background(), "acme/widgets", "main", "src")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content available")

	_, err = p.GetFileContent(context.Background(), "acme/widgets", "main", "huge.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode content")
}

func TestPostComment(t *testing.T) {
	var posted github.IssueComment
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &posted))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1,"html_url":"https://github.com/acme/widgets/pull/42#issuecomment-1"}`)
	})
	p := newTestProvider(t, mux)

	err := p.PostComment(context.Background(), "acme/widgets", 42, "# AI Code Review\n\nlooks fine")
	require.NoError(t, err)
	assert.Equal(t, "# AI Code Review\n\nlooks fine", posted.GetBody())
}

func TestPostCommentError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Forbidden"}`, http.StatusForbidden)
	})
	p := newTestProvider(t, mux)

	err := p.PostComment(context.Background(), "acme/widgets", 42, "body")
	require.Error(t, err)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), GitHubConfig{})
	require.Error(t, err)

	_, err = New(context.Background(), GitHubConfig{AppID: 1, InstallationID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private key is empty")

	_, err = New(context.Background(), GitHubConfig{AppID: 1, InstallationID: 2, PrivateKeyPEM: []byte("nope")})
	require.Error(t, err)
}

func TestNewWithTokenSendsBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"number":1,"head":{"sha":"s"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p, err := New(context.Background(), GitHubConfig{Token: "ghp_test", BaseURL: server.URL})
	require.NoError(t, err)

	pr, err := p.GetPullRequest(context.Background(), "acme/widgets", 1)
	require.NoError(t, err)
	assert.Equal(t, "s", pr.HeadSHA)
}

func generateKeyPEM(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func TestAppInstallationAuth(t *testing.T) {
	key, keyPEM := generateKeyPEM(t)
	tokenRequests := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations/99/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		assert.Equal(t, http.MethodPost, r.Method)

		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		require.NoError(t, err)
		assert.Equal(t, "7", claims.Issuer)
		assert.WithinDuration(t, time.Now().Add(appJWTLifetime), claims.ExpiresAt.Time, 5*time.Second)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token":"ghs_installation","expires_at":%q}`, time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	})
	mux.HandleFunc("/repos/acme/widgets/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghs_installation", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p, err := New(context.Background(), GitHubConfig{
		AppID:          7,
		InstallationID: 99,
		PrivateKeyPEM:  keyPEM,
		BaseURL:        server.URL + "/",
	})
	require.NoError(t, err)

	require.NoError(t, p.PostComment(context.Background(), "acme/widgets", 42, "first"))
	require.NoError(t, p.PostComment(context.Background(), "acme/widgets", 42, "second"))
	assert.Equal(t, 1, tokenRequests, "installation token should be reused until it expires")
}

func TestAppInstallationAuthFailure(t *testing.T) {
	_, keyPEM := generateKeyPEM(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations/99/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p, err := New(context.Background(), GitHubConfig{
		AppID:          7,
		InstallationID: 99,
		PrivateKeyPEM:  keyPEM,
		BaseURL:        server.URL,
	})
	require.NoError(t, err)

	_, err = p.ListChangedFiles(context.Background(), "acme/widgets", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create installation token")
}
