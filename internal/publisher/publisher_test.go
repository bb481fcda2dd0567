package publisher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphServer(t *testing.T, handler http.HandlerFunc) *Facebook {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFacebook(Config{PageID: "12345", AccessToken: "tok", GraphURL: srv.URL}, nil)
}

func TestPublishSendsForm(t *testing.T) {
	var path, contentType, message, token string
	calls := 0
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		message = r.PostForm.Get("message")
		token = r.PostForm.Get("access_token")
		_, _ = w.Write([]byte(`{"id":"12345_678"}`))
	})

	id, err := fb.Publish(context.Background(), "Full time! 2-1 #EPL")
	require.NoError(t, err)
	assert.Equal(t, "12345_678", id)
	assert.Equal(t, "/v18.0/12345/feed", path)
	assert.True(t, strings.HasPrefix(contentType, "application/x-www-form-urlencoded"))
	assert.Equal(t, "Full time! 2-1 #EPL", message)
	assert.Equal(t, "tok", token)
	assert.Equal(t, 1, calls)
}

func TestPublishErrorIsNotRetried(t *testing.T) {
	calls := 0
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	})

	_, err := fb.Publish(context.Background(), "hello")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 190, apiErr.Code)
	assert.True(t, apiErr.InvalidToken())
	assert.Contains(t, apiErr.Error(), "Invalid OAuth access token.")
	assert.Contains(t, apiErr.Body, "OAuthException")
	assert.Equal(t, 1, calls)
}

func TestPublishUnparseableErrorBody(t *testing.T) {
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := fb.Publish(context.Background(), "hello")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "bad gateway")
}

func TestPublishMissingID(t *testing.T) {
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	_, err := fb.Publish(context.Background(), "hello")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.Status)
}

func TestVerifyToken(t *testing.T) {
	var query string
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v18.0/me", r.URL.Path)
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"id":"12345","name":"Global Score News"}`))
	})

	info, err := fb.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageInfo{ID: "12345", Name: "Global Score News"}, info)
	assert.Contains(t, query, "access_token=tok")
}

func TestVerifyTokenError(t *testing.T) {
	fb := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Session has expired","code":190}}`))
	})

	_, err := fb.VerifyToken(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Session has expired", apiErr.Message)
}

func TestDryRun(t *testing.T) {
	id, err := NewDryRun(nil).Publish(context.Background(), "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dry-run-"))
}
