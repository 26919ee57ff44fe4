package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"standbot/internal/models"
	"standbot/internal/structures"
	"standbot/internal/testutil"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:abc"

type apiCall struct {
	Method string
	Body   map[string]any
}

type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	replies map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: body})
	reply, ok := f.replies[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		reply = `{"ok":true,"result":true}`
	}
	if strings.Contains(reply, `"ok":false`) {
		w.WriteHeader(http.StatusBadRequest)
	}
	_, _ = w.Write([]byte(reply))
}

func (f *fakeBotAPI) last(t *testing.T) apiCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T, replies map[string]string) (*Client, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{replies: replies}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	conf := &structures.Config{
		AppName:  "StandingSessionBot",
		Telegram: structures.TelegramConfig{Token: testToken, APIURL: srv.URL + "/", PollTimeout: time.Second},
	}
	return NewClient(conf, &testutil.MockLogger{}), api
}

func TestClient_SendMessageWithShareKeyboard(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		opSendMessage: `{"ok":true,"result":{"message_id":42,"date":1000,"chat":{"id":501,"type":"private"},"text":"hi"}}`,
	})

	kb := models.NewKeyboard(models.Button{Text: "Share conversation", RequestChat: true})
	ref, err := c.SendMessage(context.Background(), 501, "hi", kb)
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: 501, MessageID: 42}, ref)

	call := api.last(t)
	assert.Equal(t, opSendMessage, call.Method)
	assert.Equal(t, float64(501), call.Body["chat_id"])
	markup := call.Body["reply_markup"].(map[string]any)
	button := markup["keyboard"].([]any)[0].([]any)[0].(map[string]any)
	assert.Equal(t, "Share conversation", button["text"])
	assert.Equal(t, float64(shareRequestID), button["request_chat"].(map[string]any)["request_id"])
}

func TestClient_SendMessageWithoutKeyboard(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		opSendMessage: `{"ok":true,"result":{"message_id":1,"chat":{"id":-100}}}`,
	})

	_, err := c.SendMessage(context.Background(), -100, "plain", nil)
	require.NoError(t, err)
	_, hasMarkup := api.last(t).Body["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestClient_APIErrorIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		opSendMessage: `{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked"}`,
	})

	_, err := c.SendMessage(context.Background(), -100, "hi", nil)
	require.Error(t, err)

	var te *models.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, opSendMessage, te.Op)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Description, "bot was kicked")
}

func TestClient_EditNotModifiedIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		opEditMessage: `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`,
	})

	err := c.EditMessage(context.Background(), models.MessageRef{ChatID: -100, MessageID: 7}, "Standing for 0 minutes 10 seconds")
	assert.NoError(t, err)
}

func TestClient_EditFailure(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		opEditMessage: `{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`,
	})

	err := c.EditMessage(context.Background(), models.MessageRef{ChatID: -100, MessageID: 7}, "x")
	assert.True(t, models.IsTransportError(err))
}

func TestClient_PinUnpinAndSticker(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		opSendSticker: `{"ok":true,"result":{"message_id":9,"chat":{"id":-100}}}`,
	})
	ctx := context.Background()
	ref := models.MessageRef{ChatID: -100, MessageID: 7}

	require.NoError(t, c.PinMessage(ctx, ref))
	assert.Equal(t, opPinMessage, api.last(t).Method)
	assert.Equal(t, true, api.last(t).Body["disable_notification"])

	require.NoError(t, c.UnpinMessage(ctx, ref))
	assert.Equal(t, opUnpinMessage, api.last(t).Method)
	assert.Equal(t, float64(7), api.last(t).Body["message_id"])

	sent, err := c.SendMedia(ctx, -100, "CAAC-stand")
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: -100, MessageID: 9}, sent)
	assert.Equal(t, "CAAC-stand", api.last(t).Body["sticker"])
}

func TestClient_ConversationTitle(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"group title", `{"ok":true,"result":{"id":-100,"type":"supergroup","title":"Standing Club"}}`, "Standing Club"},
		{"username", `{"ok":true,"result":{"id":5,"type":"private","username":"alice"}}`, "alice"},
		{"full name", `{"ok":true,"result":{"id":6,"type":"private","first_name":"Bob","last_name":"Stone"}}`, "Bob Stone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, map[string]string{opGetChat: tc.reply})
			title, err := c.ConversationTitle(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, title)
		})
	}
}

func TestClient_GetUpdates(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		opGetUpdates: `{"ok":true,"result":[{"update_id":10,"message":{"message_id":1,"date":1000,"chat":{"id":501},"text":"hello"}}]}`,
	})

	updates, err := c.GetUpdates(context.Background(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(10), updates[0].UpdateID)
	assert.Equal(t, "hello", updates[0].Message.Text)

	body := api.last(t).Body
	assert.Equal(t, float64(10), body["offset"])
	assert.Equal(t, float64(30), body["timeout"])
}
