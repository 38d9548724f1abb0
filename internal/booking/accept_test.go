package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

func testTranslator() *domain.User {
	return &domain.User{
		ID:    10,
		Role:  domain.RoleTranslator,
		Name:  "Tolk",
		Email: "tolk@example.com",
	}
}

func TestAccept_Win(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.acceptWins = true
	customer := env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.Accept(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, domain.StatusAssigned, job.Status)
	assert.Contains(t, res.Message, "Du har nu accepterat")
	assert.Contains(t, res.Message, "franska")

	require.Len(t, env.repo.assignments, 1)
	assert.Equal(t, int64(10), env.repo.assignments[0].UserID)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "job-accepted", env.mailer.sent[0].Template)
	assert.Equal(t, customer.Email, env.mailer.sent[0].To)
}

func TestAccept_LostRace(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.acceptWins = false
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.Accept(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Message, "redan accepterats av annan tolk")
	assert.Empty(t, env.mailer.sent)
}

func TestAccept_AlreadyBusy(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.acceptWins = true
	env.repo.busy = true
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.Accept(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, "Du har redan en bokning den tiden! Bokningen är inte accepterad.", res.Message)
	assert.Empty(t, env.repo.assignments)
}

func TestAccept_NonPendingNeverClaims(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.acceptWins = true
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusAssigned, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.Accept(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Empty(t, env.repo.assignments)
}

func TestAcceptWithID_Win(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.acceptWins = true
	customer := env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.AcceptWithID(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Contains(t, res.Message, "kolla i Din kökalender")

	// The customer hears about the match in-app as well as by mail.
	require.Len(t, env.dispatcher.pushes, 1)
	assert.Equal(t, customer.ID, env.dispatcher.pushes[0].UserID)
	assert.Equal(t, notify.TypeJobAccepted, env.dispatcher.pushes[0].Type)
}

func TestAcceptWithID_Busy(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.busy = true
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
	})

	res, err := env.svc.AcceptWithID(context.Background(), job.ID, testTranslator())
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Contains(t, res.Message, "Du har inte fått denna tolkning")
	assert.Empty(t, env.dispatcher.pushes)
}
