package simplefeed

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// for when event notifications are not needed
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PostCreated does nothing
func (n *NoopEventSink) PostCreated(ctx context.Context, post *PostView) error {
	return nil
}

// PostUpdated does nothing
func (n *NoopEventSink) PostUpdated(ctx context.Context, post *PostView) error {
	return nil
}

// PostDeleted does nothing
func (n *NoopEventSink) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no
// other action
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) PostCreated(ctx context.Context, post *PostView) error {
	l.logger.Info("post created", "post_id", post.ID, "creator_id", post.Creator.ID)
	return nil
}

func (l *LoggingEventSink) PostUpdated(ctx context.Context, post *PostView) error {
	l.logger.Info("post updated", "post_id", post.ID, "creator_id", post.Creator.ID)
	return nil
}

func (l *LoggingEventSink) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	l.logger.Info("post deleted", "post_id", postID)
	return nil
}
