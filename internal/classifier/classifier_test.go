package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"standbot/internal/models"
	"standbot/internal/structures"
	"standbot/internal/testutil"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, answer string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			assert.NoError(t, json.Unmarshal(body, seen))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"gen-1","object":"chat.completion","model":"test","choices":[{"index":0,"message":{"role":"assistant","content":` +
			strings.TrimSpace(mustJSON(answer)) + `},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func classifierConfig(baseURL string) *structures.Config {
	return &structures.Config{Classifier: structures.ClassifierConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "google/gemini-2.0-flash-001",
		Timeout: 5 * time.Second,
	}}
}

func TestClassifier_DisabledAlwaysFalse(t *testing.T) {
	c := NewClassifier(&structures.Config{}, &testutil.MockLogger{})

	closed, err := c.ClassifyEndIntent(context.Background(), "chill")
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestClassifier_AnswerOneMeansClose(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, " 1\n", &seen)
	c := NewClassifier(classifierConfig(srv.URL), &testutil.MockLogger{})

	closed, err := c.ClassifyEndIntent(context.Background(), "Chill")
	require.NoError(t, err)
	assert.True(t, closed)

	assert.Equal(t, "google/gemini-2.0-flash-001", seen.Model)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	assert.Equal(t, DefaultPrompt+"Chill", seen.Messages[0].Content)
}

func TestClassifier_OtherAnswerKeepsOpen(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "0", nil)
	c := NewClassifier(classifierConfig(srv.URL), &testutil.MockLogger{})

	closed, err := c.ClassifyEndIntent(context.Background(), "Please stand up")
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestClassifier_CustomPrompt(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, "0", &seen)
	conf := classifierConfig(srv.URL)
	conf.Classifier.Prompt = "Is this a goodbye? "
	c := NewClassifier(conf, &testutil.MockLogger{})

	_, err := c.ClassifyEndIntent(context.Background(), "bye")
	require.NoError(t, err)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "Is this a goodbye? bye", seen.Messages[0].Content)
}

func TestClassifier_UpstreamErrorIsClassifierError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "", nil)
	c := NewClassifier(classifierConfig(srv.URL), &testutil.MockLogger{})

	closed, err := c.ClassifyEndIntent(context.Background(), "sit")
	require.Error(t, err)
	assert.False(t, closed)

	var ce *models.ClassifierError
	assert.ErrorAs(t, err, &ce)
}

func TestClassifier_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-2","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()
	c := NewClassifier(classifierConfig(srv.URL), &testutil.MockLogger{})

	_, err := c.ClassifyEndIntent(context.Background(), "sit")
	assert.ErrorIs(t, err, errEmptyChoices)
}
