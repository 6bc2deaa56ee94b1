package events

import (
	"context"
	"log/slog"

	"github.com/ruteri/trustedcert-registry/interfaces"
)

var _ interfaces.EventJournal = (*PublishingJournal)(nil)

// PublishingJournal is an EventJournal that publishes every appended event.
type PublishingJournal struct {
	interfaces.EventJournal

	publisher interfaces.EventPublisher
	log       *slog.Logger
}

func NewPublishingJournal(journal interfaces.EventJournal, publisher interfaces.EventPublisher, log *slog.Logger) *PublishingJournal {
	return &PublishingJournal{
		EventJournal: journal,
		publisher:    publisher,
		log:          log,
	}
}

// Append appends e to the wrapped journal and publishes it once the append succeeded.
// Publish failures are logged and do not fail the append.
func (j *PublishingJournal) Append(ctx context.Context, e interfaces.Event) error {
	if err := j.EventJournal.Append(ctx, e); err != nil {
		return err
	}

	if err := j.publisher.Publish(ctx, e); err != nil {
		j.log.Warn("Failed to publish event",
			slog.Uint64("seq", e.Seq),
			slog.String("type", string(e.Type)),
			"err", err)
	}
	return nil
}

// Close closes the publisher and the wrapped journal.
func (j *PublishingJournal) Close() error {
	if err := j.publisher.Close(); err != nil {
		j.log.Warn("Failed to close event publisher", "err", err)
	}
	return j.EventJournal.Close()
}
