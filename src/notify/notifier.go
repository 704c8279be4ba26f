package notify

import (
	"classrent/src/booking"
	"classrent/src/models"
	"context"
	"errors"
	"log"
	"time"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

var ErrNoRecipient = errors.New("recipient has no email address")

// Notifier turns reservation lifecycle changes into messages for a Sender.
type Notifier struct {
	sender   Sender
	from     string
	fromName string
	loc      *time.Location
}

var _ booking.Notifier = (*Notifier)(nil)

func NewNotifier(sender Sender, from, fromName string, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{sender: sender, from: from, fromName: fromName, loc: loc}
}

func (n *Notifier) deliver(ctx context.Context, to *booking.Recipient, msg *Message) error {
	if to == nil || to.Email == "" {
		return ErrNoRecipient
	}
	msg.From = n.from
	msg.FromName = n.fromName
	return n.sender.Send(ctx, msg)
}

func (n *Notifier) BookingConfirmed(ctx context.Context, to *booking.Recipient, r *models.Reservation, space *models.Space) error {
	return n.deliver(ctx, to, ConfirmationMessage(to, r, space, n.loc))
}

func (n *Notifier) BookingUpdated(ctx context.Context, to *booking.Recipient, r *models.Reservation, space *models.Space) error {
	return n.deliver(ctx, to, UpdateMessage(to, r, space, n.loc))
}

func (n *Notifier) BookingCancelled(ctx context.Context, to *booking.Recipient, r *models.Reservation, space *models.Space) error {
	return n.deliver(ctx, to, CancellationMessage(to, r, space, n.loc))
}

// LogSender only writes messages to the log. Used when delivery is switched off.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg *Message) error {
	log.Printf("[mailer] Email delivery disabled, dropping %q to %v\n", msg.Subject, msg.To)
	return nil
}
