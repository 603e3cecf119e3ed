package transport

import "context"

type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool

	// LinkButton attaches a single inline URL button below the message.
	// Empty LinkButtonURL means no button.
	LinkButtonText string
	LinkButtonURL  string
}

// Sink is the outbound message contract the pipeline depends on.
// The core never interprets failure causes beyond "retryable".
type Sink interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}
