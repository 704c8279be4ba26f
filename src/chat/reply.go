package chat

import (
	"classrent/src/models"
	"classrent/src/types"
)

type Action string

const (
	ActionInfo              Action = "info"
	ActionBookingSuggestion Action = "booking_suggestion"
	ActionTodoList          Action = "todo_list"
	ActionBookingProposal   Action = "booking_proposal"
	ActionError             Action = "error"
)

// Reply is implemented by Info, BookingSuggestion, TodoList, BookingProposal and Failure.
type Reply interface {
	Action() Action
	Message() string
	Payload() types.JSONB
}

type Info struct {
	Text   string
	Topics []string
}

func (r *Info) Action() Action  { return ActionInfo }
func (r *Info) Message() string { return r.Text }
func (r *Info) Payload() types.JSONB {
	if len(r.Topics) == 0 {
		return types.JSONB{}
	}
	return types.JSONB{"topics": r.Topics}
}

type SpaceSummary struct {
	ID             uint                  `json:"id"`
	Name           string                `json:"name"`
	Type           string                `json:"type"`
	Capacity       int                   `json:"capacity"`
	Location       string                `json:"location"`
	Materials      []string              `json:"materials"`
	AvailableHours models.AvailableHours `json:"available_hours"`
}

func summarize(s *models.Space) SpaceSummary {
	materials := []string(s.Materials)
	if materials == nil {
		materials = []string{}
	}
	return SpaceSummary{
		ID:             s.ID,
		Name:           s.Name,
		Type:           s.Type,
		Capacity:       s.Capacity,
		Location:       s.Location,
		Materials:      materials,
		AvailableHours: s.OpeningHours(),
	}
}

type BookingSuggestion struct {
	Text   string
	Spaces []SpaceSummary
}

func (r *BookingSuggestion) Action() Action  { return ActionBookingSuggestion }
func (r *BookingSuggestion) Message() string { return r.Text }
func (r *BookingSuggestion) Payload() types.JSONB {
	spaces := r.Spaces
	if spaces == nil {
		spaces = []SpaceSummary{}
	}
	return types.JSONB{"spaces": spaces, "count": len(spaces)}
}

type TodoList struct {
	Text      string
	Activity  string
	Checklist []string
}

func (r *TodoList) Action() Action  { return ActionTodoList }
func (r *TodoList) Message() string { return r.Text }
func (r *TodoList) Payload() types.JSONB {
	return types.JSONB{"activity_type": r.Activity, "checklist": r.Checklist}
}

// BookingProposal reports a reservation granted from a structured proposal.
type BookingProposal struct {
	Text        string
	Reservation *models.Reservation
}

func (r *BookingProposal) Action() Action  { return ActionBookingProposal }
func (r *BookingProposal) Message() string { return r.Text }
func (r *BookingProposal) Payload() types.JSONB {
	return types.JSONB{"booking_id": r.Reservation.ID, "reservation": r.Reservation}
}

type Failure struct {
	Text   string
	Reason string
}

func (r *Failure) Action() Action  { return ActionError }
func (r *Failure) Message() string { return r.Text }
func (r *Failure) Payload() types.JSONB {
	if r.Reason == "" {
		return types.JSONB{}
	}
	return types.JSONB{"reason": r.Reason}
}

// Envelope is the wire shape of every reply.
type Envelope struct {
	Response string      `json:"response"`
	Action   Action      `json:"action"`
	Data     types.JSONB `json:"data"`
}

func Wrap(r Reply) Envelope {
	return Envelope{Response: r.Message(), Action: r.Action(), Data: r.Payload()}
}
