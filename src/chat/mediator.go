package chat

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const suggestionLimit = 5

// Booker is the reservation entry point proposals are submitted through.
type Booker interface {
	Create(ctx context.Context, c booking.Candidate, requesterID uint) (*models.Reservation, error)
}

var (
	bookingKeywords   = []string{"prenota", "prenotare", "voglio", "serve un", "aula", "disponibil"}
	checklistKeywords = []string{"lista", "cosa serve", "materiali", "checklist", "preparare"}
)

const helpText = `Ciao! Sono l'assistente ClassRent.

Posso aiutarti con:
• Prenotazioni: "Voglio prenotare un'aula per domani alle 14"
• Informazioni spazi: "Che aule ci sono disponibili?"
• Liste materiali: "Cosa serve per la laurea?"
• Gestione prenotazioni: "Mostrami le mie prenotazioni"

Come posso aiutarti?`

type Mediator struct {
	assistant Assistant
	catalog   SpaceCatalog
	booker    Booker
	loc       *time.Location
}

func NewMediator(assistant Assistant, catalog SpaceCatalog, booker Booker, loc *time.Location) *Mediator {
	if assistant == nil {
		assistant = NotConfigured{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Mediator{assistant: assistant, catalog: catalog, booker: booker, loc: loc}
}

// Handle answers one chat turn. A structured proposal is always submitted as a booking;
// otherwise the assistant answers and the keyword responder covers for it when it cannot.
func (m *Mediator) Handle(ctx context.Context, req *types.ChatRequestBody, who Requester) Reply {
	var reply Reply
	if req.Proposal != nil {
		reply = m.propose(ctx, req.Proposal, who)
	} else {
		r, err := m.assistant.Respond(ctx, req.Message, who)
		switch {
		case err == nil && r != nil:
			reply = r
		case err != nil && !errors.Is(err, ErrNotConfigured):
			log.Printf("[chat] Assistant failed, using fallback: %s\n", err.Error())
			fallthrough
		default:
			reply = m.fallback(ctx, req.Message)
		}
	}
	if todo, ok := reply.(*TodoList); ok && who.Role == types.ROLE_PROFESSOR {
		todo.Checklist = append(todo.Checklist, professorChecklist...)
	}
	return reply
}

// ProposalCandidate converts a proposal expressed in local date and clock times.
func ProposalCandidate(p *types.ChatProposalBody, loc *time.Location) (booking.Candidate, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.StartTime, loc)
	if err != nil {
		return booking.Candidate{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.EndTime, loc)
	if err != nil {
		return booking.Candidate{}, fmt.Errorf("end: %w", err)
	}
	notes := p.Notes
	if notes == nil {
		n := "Prenotazione creata tramite assistente ClassRent"
		notes = &n
	}
	purpose := p.Purpose
	if purpose == "" {
		purpose = "Prenotazione tramite assistente"
	}
	return booking.Candidate{
		SpaceID:            p.SpaceID,
		Start:              start,
		End:                end,
		Purpose:            purpose,
		MaterialsRequested: p.MaterialsRequested,
		Notes:              notes,
	}, nil
}

func (m *Mediator) propose(ctx context.Context, p *types.ChatProposalBody, who Requester) Reply {
	c, err := ProposalCandidate(p, m.loc)
	if err != nil {
		return &Failure{Text: "Data o orario non validi. Usa YYYY-MM-DD e HH:MM.", Reason: booking.ReasonRequired}
	}
	r, err := m.booker.Create(ctx, c, who.ID)
	if err != nil {
		return proposalFailure(err)
	}
	name := r.SpaceName()
	return &BookingProposal{
		Text:        fmt.Sprintf("✅ Prenotazione creata con successo! %s il %s dalle %s alle %s", name, p.Date, p.StartTime, p.EndTime),
		Reservation: r,
	}
}

func proposalFailure(err error) Reply {
	var be *booking.BookingError
	if errors.As(err, &be) {
		return &Failure{Text: "Impossibile creare la prenotazione: " + be.Error(), Reason: be.Reason}
	}
	log.Printf("[chat] Error creating proposed booking: %s\n", err.Error())
	return &Failure{Text: "Mi dispiace, si è verificato un errore. Riprova più tardi."}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (m *Mediator) fallback(ctx context.Context, message string) Reply {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, checklistKeywords):
		activity, items := Checklist(lower)
		return &TodoList{
			Text:      "Ecco una lista di cose da preparare:",
			Activity:  activity,
			Checklist: items,
		}
	case containsAny(lower, bookingKeywords):
		return m.suggest(ctx)
	default:
		return &Info{Text: helpText, Topics: []string{"prenotazioni", "spazi", "materiali", "gestione"}}
	}
}

func (m *Mediator) suggest(ctx context.Context) Reply {
	text := "Per prenotare uno spazio indica lo spazio, la data e l'orario desiderato."
	if m.catalog == nil {
		return &BookingSuggestion{Text: text}
	}
	spaces, err := m.catalog.ActiveSpaces(ctx, suggestionLimit)
	if err != nil {
		log.Printf("[chat] Error listing spaces: %s\n", err.Error())
		return &BookingSuggestion{Text: text}
	}
	summaries := make([]SpaceSummary, 0, len(spaces))
	for i := range spaces {
		summaries = append(summaries, summarize(&spaces[i]))
	}
	if len(summaries) > 0 {
		text = "Ecco alcuni spazi disponibili. " + text
	}
	return &BookingSuggestion{Text: text, Spaces: summaries}
}
