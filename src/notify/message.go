package notify

import (
	"classrent/src/booking"
	"classrent/src/models"
	"fmt"
	"strings"
	"time"
)

const displayLayout = "02/01/2006 15:04"

type Message struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	Body     string
}

func greeting(to *booking.Recipient) string {
	name := to.Name
	if name == "" {
		name = "Utente"
	}
	return fmt.Sprintf("Ciao %s,\n\n", name)
}

func details(b *strings.Builder, r *models.Reservation, space *models.Space, loc *time.Location) {
	fmt.Fprintf(b, "Spazio: %s\n", space.Name)
	if space.Location != "" {
		fmt.Fprintf(b, "Ubicazione: %s\n", space.Location)
	}
	fmt.Fprintf(b, "Inizio: %s\n", r.StartDatetime.In(loc).Format(displayLayout))
	fmt.Fprintf(b, "Fine: %s\n", r.EndDatetime.In(loc).Format(displayLayout))
	fmt.Fprintf(b, "Durata: %.1f ore\n", r.Duration().Hours())
	if r.Purpose != "" {
		fmt.Fprintf(b, "Scopo: %s\n", r.Purpose)
	}
	if len(r.MaterialsRequested) > 0 {
		fmt.Fprintf(b, "Materiali richiesti: %s\n", strings.Join(r.MaterialsRequested, ", "))
	}
	if r.Notes != nil && *r.Notes != "" {
		fmt.Fprintf(b, "Note: %s\n", *r.Notes)
	}
}

func ConfirmationMessage(to *booking.Recipient, r *models.Reservation, space *models.Space, loc *time.Location) *Message {
	var b strings.Builder
	b.WriteString(greeting(to))
	b.WriteString("la tua prenotazione è stata confermata.\n\n")
	details(&b, r, space, loc)
	fmt.Fprintf(&b, "\nCodice prenotazione: %d\n", r.ID)
	return &Message{
		To:      []string{to.Email},
		Subject: fmt.Sprintf("Conferma Prenotazione ClassRent - %s", space.Name),
		Body:    b.String(),
	}
}

func UpdateMessage(to *booking.Recipient, r *models.Reservation, space *models.Space, loc *time.Location) *Message {
	var b strings.Builder
	b.WriteString(greeting(to))
	b.WriteString("la tua prenotazione è stata modificata. Ecco i nuovi dettagli:\n\n")
	details(&b, r, space, loc)
	return &Message{
		To:      []string{to.Email},
		Subject: fmt.Sprintf("Prenotazione Modificata - %s", space.Name),
		Body:    b.String(),
	}
}

func CancellationMessage(to *booking.Recipient, r *models.Reservation, space *models.Space, loc *time.Location) *Message {
	var b strings.Builder
	b.WriteString(greeting(to))
	b.WriteString("la tua prenotazione è stata cancellata.\n\n")
	details(&b, r, space, loc)
	if r.CancellationReason != "" {
		fmt.Fprintf(&b, "Motivo: %s\n", r.CancellationReason)
	}
	b.WriteString("\nLo spazio è ora nuovamente disponibile per altre prenotazioni.\n")
	return &Message{
		To:      []string{to.Email},
		Subject: fmt.Sprintf("Prenotazione Cancellata - %s", space.Name),
		Body:    b.String(),
	}
}
