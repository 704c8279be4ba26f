package chat

import (
	"classrent/src/booking"
	"classrent/src/models"
	"classrent/src/types"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeCatalog struct {
	spaces []models.Space
	err    error
}

func (f *fakeCatalog) ActiveSpaces(ctx context.Context, limit int) ([]models.Space, error) {
	return f.spaces, f.err
}

type fakeBooker struct {
	got       booking.Candidate
	requester uint
	err       error
}

func (f *fakeBooker) Create(ctx context.Context, c booking.Candidate, requesterID uint) (*models.Reservation, error) {
	f.got, f.requester = c, requesterID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reservation{
		ID:            99,
		SpaceID:       c.SpaceID,
		StartDatetime: c.Start,
		EndDatetime:   c.End,
		Purpose:       c.Purpose,
		Status:        types.RESERVATION_CONFIRMED,
		Space:         &models.Space{ID: c.SpaceID, Name: "Aula Magna"},
	}, nil
}

type scriptedAssistant struct {
	reply Reply
	err   error
}

func (s scriptedAssistant) Respond(context.Context, string, Requester) (Reply, error) {
	return s.reply, s.err
}

var student = Requester{ID: 4, Name: "Luca", Role: types.ROLE_STUDENT}

func handle(m *Mediator, msg string, who Requester) Reply {
	return m.Handle(context.Background(), &types.ChatRequestBody{Message: msg}, who)
}

func TestFallbackSuggestsActiveSpaces(t *testing.T) {
	catalog := &fakeCatalog{spaces: []models.Space{
		{ID: 1, Name: "Aula Magna", Type: "aula", Capacity: 200, Materials: types.StringArray{"proiettore"}},
		{ID: 2, Name: "Lab 3", Type: "laboratorio", Capacity: 30},
	}}
	m := NewMediator(nil, catalog, &fakeBooker{}, time.UTC)

	reply := handle(m, "Voglio prenotare un'aula per domani", student)
	require.IsType(t, &BookingSuggestion{}, reply)

	env, err := json.Marshal(Wrap(reply))
	require.NoError(t, err)
	body := string(env)
	assert.Equal(t, "booking_suggestion", gjson.Get(body, "action").String())
	assert.Equal(t, int64(2), gjson.Get(body, "data.count").Int())
	assert.Equal(t, "Aula Magna", gjson.Get(body, "data.spaces.0.name").String())
	assert.Equal(t, "08:00", gjson.Get(body, "data.spaces.1.available_hours.start_time").String())
	assert.Equal(t, 0, len(gjson.Get(body, "data.spaces.1.materials").Array()))
}

func TestFallbackSuggestionSurvivesCatalogFailure(t *testing.T) {
	m := NewMediator(nil, &fakeCatalog{err: errors.New("db down")}, &fakeBooker{}, time.UTC)
	reply := handle(m, "prenota", student)
	require.IsType(t, &BookingSuggestion{}, reply)
	assert.Empty(t, reply.(*BookingSuggestion).Spaces)
}

func TestFallbackChecklists(t *testing.T) {
	m := NewMediator(nil, &fakeCatalog{}, &fakeBooker{}, time.UTC)

	reply := handle(m, "Cosa serve per la laurea?", student)
	todo, ok := reply.(*TodoList)
	require.True(t, ok)
	assert.Equal(t, "laurea", todo.Activity)
	assert.Contains(t, todo.Checklist, "Stampare copie della tesi per la commissione")
	assert.NotContains(t, todo.Checklist, "Preparare registro presenze")

	reply = handle(m, "lista materiali per un evento", Requester{ID: 9, Role: types.ROLE_PROFESSOR})
	todo, ok = reply.(*TodoList)
	require.True(t, ok)
	assert.Equal(t, "generico", todo.Activity)
	assert.Equal(t, append(append([]string{}, genericChecklist...), professorChecklist...), todo.Checklist)

	again := handle(m, "lista materiali per un evento", student).(*TodoList)
	assert.Equal(t, genericChecklist, again.Checklist, "professor items must not leak into shared lists")
}

func TestFallbackHelp(t *testing.T) {
	m := NewMediator(NotConfigured{}, nil, &fakeBooker{}, time.UTC)
	reply := handle(m, "ciao", student)
	assert.Equal(t, ActionInfo, reply.Action())
	assert.Contains(t, reply.Message(), "assistente ClassRent")
}

func TestAssistantReplyWins(t *testing.T) {
	m := NewMediator(scriptedAssistant{reply: &Info{Text: "risposta"}}, nil, &fakeBooker{}, time.UTC)
	assert.Equal(t, "risposta", handle(m, "prenota", student).Message())

	m = NewMediator(scriptedAssistant{err: errors.New("timeout")}, &fakeCatalog{}, &fakeBooker{}, time.UTC)
	assert.Equal(t, ActionBookingSuggestion, handle(m, "prenota", student).Action())
}

func TestProposalCreatesThroughBooker(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	booker := &fakeBooker{}
	m := NewMediator(nil, nil, booker, rome)

	reply := m.Handle(context.Background(), &types.ChatRequestBody{
		Message: "conferma",
		Proposal: &types.ChatProposalBody{
			SpaceID:   1,
			Date:      "2030-03-05",
			StartTime: "09:00",
			EndTime:   "11:00",
			Purpose:   "Seminario",
		},
	}, student)

	proposal, ok := reply.(*BookingProposal)
	require.True(t, ok)
	assert.Equal(t, uint(99), proposal.Reservation.ID)
	assert.Contains(t, proposal.Text, "Aula Magna il 2030-03-05 dalle 09:00 alle 11:00")
	assert.Equal(t, uint(4), booker.requester)
	assert.Equal(t, time.Date(2030, time.March, 5, 8, 0, 0, 0, time.UTC), booker.got.Start.UTC())
	assert.Equal(t, 2*time.Hour, booker.got.End.Sub(booker.got.Start))
	require.NotNil(t, booker.got.Notes)

	env, err := json.Marshal(Wrap(reply))
	require.NoError(t, err)
	assert.Equal(t, int64(99), gjson.GetBytes(env, "data.booking_id").Int())
	assert.Equal(t, "confirmed", gjson.GetBytes(env, "data.reservation.status").String())
}

func TestProposalRejected(t *testing.T) {
	booker := &fakeBooker{err: &booking.BookingError{Kind: booking.ErrSlotUnavailable, Reason: booking.ReasonOverlap, Message: "Aula Magna is already booked in that interval"}}
	m := NewMediator(nil, nil, booker, time.UTC)

	reply := m.Handle(context.Background(), &types.ChatRequestBody{
		Message:  "conferma",
		Proposal: &types.ChatProposalBody{SpaceID: 1, Date: "2030-03-05", StartTime: "09:00", EndTime: "10:00"},
	}, student)
	require.Equal(t, ActionError, reply.Action())
	assert.Equal(t, types.JSONB{"reason": "overlap"}, reply.Payload())
	assert.Contains(t, reply.Message(), "already booked")

	booker.err = errors.New("connection reset")
	reply = m.Handle(context.Background(), &types.ChatRequestBody{
		Message:  "conferma",
		Proposal: &types.ChatProposalBody{SpaceID: 1, Date: "2030-03-05", StartTime: "09:00", EndTime: "10:00"},
	}, student)
	assert.Equal(t, ActionError, reply.Action())
	assert.NotContains(t, reply.Message(), "connection reset")
}

func TestProposalCandidateRejectsBadDate(t *testing.T) {
	_, err := ProposalCandidate(&types.ChatProposalBody{Date: "05/03/2030", StartTime: "09:00", EndTime: "10:00"}, time.UTC)
	assert.Error(t, err)
}
