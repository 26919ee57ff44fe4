package controllers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"standbot/internal/providers"
	"standbot/internal/services"
	"standbot/internal/services/interfaces"
	"standbot/internal/structures"
	"standbot/internal/transport/telegram"

	json "github.com/goccy/go-json"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB
	secretTokenHeader  = "X-Telegram-Bot-Api-Secret-Token"
)

// WebhookController accepts Bot API updates pushed over HTTPS.
type WebhookController struct {
	sink   interfaces.EventSink
	secret string
	logger providers.Logger
}

func NewWebhookController(conf *structures.Config, sink interfaces.EventSink, logger providers.Logger) *WebhookController {
	return &WebhookController{sink: sink, secret: conf.Telegram.WebhookSecret, logger: logger}
}

func (wc *WebhookController) ReceiveUpdate(w http.ResponseWriter, r *http.Request) {
	if wc.secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(wc.secret)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	event, ok := telegram.ToEvent(update)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := wc.sink.Submit(r.Context(), event); err != nil {
		wc.logger.Warnf(providers.TypeHTTP, "Update %d not accepted: %v", update.UpdateID, err)
		if errors.Is(err, services.ErrDispatcherStopped) {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Request Timeout", http.StatusRequestTimeout)
		return
	}
	w.WriteHeader(http.StatusOK)
}
