package notify

import (
	"context"
	"log"
)

// LogNotifier only writes the notification to the process log. Used when no
// SMTP server is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg Message) error {
	subject, _, err := Render(msg)
	if err != nil {
		return err
	}
	log.Printf("notification %s (%s): %s", msg.ID, msg.Kind, subject)
	return nil
}
