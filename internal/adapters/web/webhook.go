package web

import (
	"encoding/json"
	"log"
	"net/http"

	"treasury-bot/internal/app"
	"treasury-bot/internal/whatsapp"
)

// webhookBody is the Evolution API "messages.upsert" event payload, reduced
// to the fields the pipeline reads.
type webhookBody struct {
	Event string      `json:"event"`
	Data  webhookData `json:"data"`
}

type webhookData struct {
	Key      webhookKey      `json:"key"`
	PushName string          `json:"pushName"`
	Message  *webhookMessage `json:"message"`
}

type webhookKey struct {
	RemoteJid   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	Participant string `json:"participant,omitempty"`
	SenderPn    string `json:"senderPn,omitempty"`
	ID          string `json:"id"`
}

type webhookMessage struct {
	Conversation        string          `json:"conversation,omitempty"`
	ExtendedTextMessage *webhookExtText `json:"extendedTextMessage,omitempty"`
}

type webhookExtText struct {
	Text string `json:"text,omitempty"`
}

// text returns the message body regardless of which wrapper the gateway used.
func (d webhookData) text() string {
	if d.Message == nil {
		return ""
	}
	if d.Message.Conversation != "" {
		return d.Message.Conversation
	}
	if d.Message.ExtendedTextMessage != nil {
		return d.Message.ExtendedTextMessage.Text
	}
	return ""
}

// handleMessagesUpsert is the inbound webhook. Recognized-but-filtered events
// (wrong event type, own messages, duplicates, rate-limited or unknown
// senders, empty text) all answer 200 so the gateway stops redelivering;
// only unexpected internal failures answer 500.
func (h *Handler) handleMessagesUpsert(w http.ResponseWriter, r *http.Request) {
	var body webhookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeText(w, http.StatusOK, "unreadable payload ignored")
		return
	}

	if body.Event != "messages.upsert" {
		writeText(w, http.StatusOK, "event ignored")
		return
	}
	if body.Data.Key.FromMe {
		writeText(w, http.StatusOK, "own message ignored")
		return
	}

	if !h.seen.remember(body.Data.Key.ID) {
		log.Printf("webhook: duplicate message ignored: %s", body.Data.Key.ID)
		writeText(w, http.StatusOK, "duplicate ignored")
		return
	}

	key := whatsapp.SenderKey{
		RemoteJid:   body.Data.Key.RemoteJid,
		Participant: body.Data.Key.Participant,
		SenderPn:    body.Data.Key.SenderPn,
	}
	destination := whatsapp.PreferredSender(key)
	phone := whatsapp.NormalizePhone(key)
	if phone == "" {
		writeText(w, http.StatusOK, "no sender identifier")
		return
	}

	if !h.limiter.allow(phone) {
		log.Printf("webhook: rate limited sender %s", phone)
		writeText(w, http.StatusOK, "rate limited")
		return
	}

	text := body.Data.text()
	if text == "" {
		writeText(w, http.StatusOK, "no text")
		return
	}

	result, err := h.svc.HandleMessage(r.Context(), app.InboundMessage{
		MessageID:   body.Data.Key.ID,
		PushName:    body.Data.PushName,
		Destination: destination,
		Phone:       phone,
		Text:        text,
	})
	if err != nil {
		log.Printf("webhook: handler error: %v", err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	writeText(w, http.StatusOK, string(result.Status))
}
