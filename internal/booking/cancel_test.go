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

func TestCancel_CustomerBefore24Hours(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	tr := env.repo.addUser(&domain.User{ID: 10, Role: domain.RoleTranslator, Email: "tolk@example.com"})
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusAssigned, Due: now.Add(48 * time.Hour),
	})
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: tr.ID, CreatedAt: now.Add(-time.Hour),
	})

	err := env.svc.Cancel(context.Background(), job.ID, customer)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWithdrawBefore24, job.Status)
	require.NotNil(t, job.WithdrawAt)
	assert.Equal(t, now, *job.WithdrawAt)

	require.Len(t, env.dispatcher.pushes, 1)
	assert.Equal(t, tr.ID, env.dispatcher.pushes[0].UserID)
	assert.Equal(t, notify.TypeJobCanceled, env.dispatcher.pushes[0].Type)
	assert.Contains(t, env.dispatcher.pushes[0].Text, "Kunden har avbokat")
}

func TestCancel_CustomerInside24Hours(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusAssigned, Due: now.Add(3 * time.Hour),
	})

	err := env.svc.Cancel(context.Background(), job.ID, customer)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWithdrawAfter24, job.Status)
	// No assigned translator, nothing to push.
	assert.Empty(t, env.dispatcher.pushes)
}

func TestCancel_TranslatorInside24HoursRefused(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	tr := testTranslator()
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Duration: 30,
		Status: domain.StatusAssigned, Due: now.Add(12 * time.Hour),
	})

	err := env.svc.Cancel(context.Background(), job.ID, tr)

	var refusal *domain.PolicyRefusal
	require.ErrorAs(t, err, &refusal)
	assert.Contains(t, refusal.Message, "inom 24 timmar")
	assert.Equal(t, domain.StatusAssigned, job.Status)
	assert.Zero(t, env.repo.updateCalls)
}

func TestCancel_TranslatorReopensJob(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	tr := env.repo.addUser(testTranslator())
	other := domain.User{ID: 11, Role: domain.RoleTranslator, Email: "annan@example.com"}
	env.repo.translators = []domain.User{*tr, other}
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: customer.ID, FromLanguageID: 1, Duration: 30,
		JobType: domain.JobTypePaid,
		Status:  domain.StatusAssigned, Due: now.Add(48 * time.Hour),
		CreatedAt: now.Add(-24 * time.Hour),
	})
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: tr.ID, CreatedAt: now.Add(-24 * time.Hour),
	})

	err := env.svc.Cancel(context.Background(), job.ID, tr)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	assert.Equal(t, job.Due.Add(-48*time.Hour), job.WillExpireAt)
	assert.False(t, env.repo.assignments[0].Active())

	// Customer push plus a fresh broadcast that skips the canceling
	// translator.
	require.NotEmpty(t, env.dispatcher.pushes)
	assert.Equal(t, customer.ID, env.dispatcher.pushes[0].UserID)
	assert.Contains(t, env.dispatcher.pushes[0].Text, "har avbokat tolkningen")
	require.Len(t, env.dispatcher.broadcasts, 1)
	require.Len(t, env.dispatcher.broadcasts[0], 1)
	assert.Equal(t, other.ID, env.dispatcher.broadcasts[0][0].ID)
}
