package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clavin/mediawiki-based-adv/storage"
)

const fallbackReply = "I seem to be at a loss for words right now. Try me again in a moment."

// Responder composes a reply to an incoming message. An empty message
// produces an unprompted, fully random musing.
type Responder interface {
	Respond(ctx context.Context, message string) (string, error)
}

// MessageSender delivers text to a chat.
type MessageSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// TranscriptStore records exchanges and serves activity stats.
type TranscriptStore interface {
	RecordExchange(ctx context.Context, chatID int64, message, reply string) error
	GetStats(ctx context.Context, chatID int64) (*storage.Stats, error)
}

// Handler routes incoming chat messages to the response engine.
type Handler struct {
	responder Responder
	sender    MessageSender
	store     TranscriptStore
}

// NewHandler creates a message handler.
func NewHandler(responder Responder, sender MessageSender, store TranscriptStore) *Handler {
	return &Handler{
		responder: responder,
		sender:    sender,
		store:     store,
	}
}

// HandleMessage dispatches one incoming message. Commands start with a
// slash; anything else is answered by the engine.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)

	switch command(text) {
	case "/start":
		return h.handleStart(ctx, chatID)
	case "/help":
		return h.handleHelp(ctx, chatID)
	case "/muse":
		return h.Muse(ctx, chatID)
	case "/stats":
		return h.handleStats(ctx, chatID)
	default:
		return h.handleChat(ctx, chatID, text)
	}
}

// Muse sends an unprompted response built entirely from random
// articles. The scheduler and the /muse command both land here.
func (h *Handler) Muse(ctx context.Context, chatID int64) error {
	return h.respondAndRecord(ctx, chatID, "")
}

func (h *Handler) handleChat(ctx context.Context, chatID int64, text string) error {
	return h.respondAndRecord(ctx, chatID, text)
}

func (h *Handler) respondAndRecord(ctx context.Context, chatID int64, message string) error {
	reply, err := h.responder.Respond(ctx, message)
	if err != nil {
		// Recoverable conditions already degraded inside the engine;
		// an error here means the response could not be built at all.
		slog.Error("response composition failed", "chat_id", chatID, "error", err)
		return h.sender.SendText(ctx, chatID, fallbackReply)
	}

	if err := h.sender.SendText(ctx, chatID, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	if err := h.store.RecordExchange(ctx, chatID, message, reply); err != nil {
		slog.Warn("failed to record exchange", "chat_id", chatID, "error", err)
	}
	return nil
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) error {
	msg := "Hello! Say anything and I will answer with sentences drawn " +
		"from wiki articles about your rarest words.\n\n" +
		"Commands:\n" +
		"/muse - An unprompted thought\n" +
		"/stats - Conversation stats\n" +
		"/help - This message"
	return h.sender.SendText(ctx, chatID, msg)
}

func (h *Handler) handleHelp(ctx context.Context, chatID int64) error {
	return h.handleStart(ctx, chatID)
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) error {
	stats, err := h.store.GetStats(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Exchanges: %d\n", stats.Exchanges)
	fmt.Fprintf(&sb, "Musings: %d\n", stats.Musings)
	if stats.FirstSeen != nil {
		fmt.Fprintf(&sb, "Talking since: %s", stats.FirstSeen.Format("2006-01-02"))
	}

	return h.sender.SendText(ctx, chatID, sb.String())
}

// command extracts the leading slash command, stripping any @botname
// suffix; returns "" for plain text.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return cmd
}
