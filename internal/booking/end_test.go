package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

func TestEndJob(t *testing.T) {
	due := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	now := due.Add(time.Hour + 23*time.Minute + 45*time.Second)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	tr := env.repo.addUser(&domain.User{ID: 10, Role: domain.RoleTranslator, Email: "tolk@example.com"})
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 60,
		Status: domain.StatusStarted, Due: due,
	})
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: tr.ID, CreatedAt: due.Add(-time.Hour),
	})

	err := env.svc.EndJob(context.Background(), job.ID, customer.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, "1:23:45", job.SessionTime)
	require.NotNil(t, job.EndAt)
	assert.Equal(t, now, *job.EndAt)

	require.Len(t, env.mailer.sent, 2)
	assert.Equal(t, customer.Email, env.mailer.sent[0].To)
	assert.Equal(t, "faktura", env.mailer.sent[0].Data["for_text"])
	assert.Equal(t, tr.Email, env.mailer.sent[1].To)
	assert.Equal(t, "lön", env.mailer.sent[1].Data["for_text"])
	assert.Equal(t, "1 tim 23 min", env.mailer.sent[0].Data["session_time"])

	assert.Equal(t, []int64{501}, env.repo.completedIDs)
	require.NotNil(t, env.repo.assignments[0].CompletedBy)
	assert.Equal(t, customer.ID, *env.repo.assignments[0].CompletedBy)
}

func TestEndJob_EndedBeforeDueStillPositive(t *testing.T) {
	due := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	now := due.Add(-30 * time.Minute)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 60,
		Status: domain.StatusStarted, Due: due,
	})

	err := env.svc.EndJob(context.Background(), job.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "0:30:00", job.SessionTime)
}

func TestEndJob_IgnoresNonStarted(t *testing.T) {
	env := newTestEnv(time.Now())
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, Status: domain.StatusPending,
	})

	err := env.svc.EndJob(context.Background(), job.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Zero(t, env.repo.updateCalls)
	assert.Empty(t, env.mailer.sent)
}

func TestCustomerNotCall(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, Status: domain.StatusStarted, Due: now.Add(-time.Hour),
	})
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: 10, CreatedAt: now.Add(-2 * time.Hour),
	})

	err := env.svc.CustomerNotCall(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNotCarriedOutCustomer, job.Status)
	require.NotNil(t, job.EndAt)

	// Closed in the translator's favour, without any mail.
	assert.Equal(t, []int64{501}, env.repo.completedIDs)
	require.NotNil(t, env.repo.assignments[0].CompletedBy)
	assert.Equal(t, int64(10), *env.repo.assignments[0].CompletedBy)
	assert.Empty(t, env.mailer.sent)
}
