package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

func futureJob(env *testEnv, status string) *domain.Job {
	return env.repo.addJob(&domain.Job{
		ID:             101,
		UserID:         1,
		FromLanguageID: 1,
		Duration:       60,
		Status:         status,
		Due:            env.now.Add(48 * time.Hour),
		CreatedAt:      env.now.Add(-time.Hour),
	})
}

func TestUpdate_StatusTransitions(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		from        string
		req         UpdateRequest
		wantChanged bool
		wantStatus  string
	}{
		{
			name:        "pending to withdrawbefore24",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusWithdrawBefore24},
			wantChanged: true,
			wantStatus:  domain.StatusWithdrawBefore24,
		},
		{
			name:        "pending to timedout requires comment",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusTimedOut},
			wantChanged: false,
			wantStatus:  domain.StatusPending,
		},
		{
			name:        "pending to timedout with comment",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusTimedOut, AdminComments: "no takers"},
			wantChanged: true,
			wantStatus:  domain.StatusTimedOut,
		},
		{
			name:        "pending to completed rejected",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusCompleted, AdminComments: "x"},
			wantChanged: false,
			wantStatus:  domain.StatusPending,
		},
		{
			name:        "pending to started rejected",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusStarted},
			wantChanged: false,
			wantStatus:  domain.StatusPending,
		},
		{
			name:        "pending to assigned needs a translator",
			from:        domain.StatusPending,
			req:         UpdateRequest{Status: domain.StatusAssigned},
			wantChanged: false,
			wantStatus:  domain.StatusPending,
		},
		{
			name:        "assigned to withdrawafter24",
			from:        domain.StatusAssigned,
			req:         UpdateRequest{Status: domain.StatusWithdrawAfter24},
			wantChanged: true,
			wantStatus:  domain.StatusWithdrawAfter24,
		},
		{
			name:        "assigned to completed rejected",
			from:        domain.StatusAssigned,
			req:         UpdateRequest{Status: domain.StatusCompleted, AdminComments: "x"},
			wantChanged: false,
			wantStatus:  domain.StatusAssigned,
		},
		{
			name:        "started to completed needs session time",
			from:        domain.StatusStarted,
			req:         UpdateRequest{Status: domain.StatusCompleted, AdminComments: "done"},
			wantChanged: false,
			wantStatus:  domain.StatusStarted,
		},
		{
			name:        "started to completed",
			from:        domain.StatusStarted,
			req:         UpdateRequest{Status: domain.StatusCompleted, AdminComments: "done", SessionTime: "1:30:00"},
			wantChanged: true,
			wantStatus:  domain.StatusCompleted,
		},
		{
			name:        "started needs comments",
			from:        domain.StatusStarted,
			req:         UpdateRequest{Status: domain.StatusWithdrawAfter24},
			wantChanged: false,
			wantStatus:  domain.StatusStarted,
		},
		{
			name:        "completed to timedout with comment",
			from:        domain.StatusCompleted,
			req:         UpdateRequest{Status: domain.StatusTimedOut, AdminComments: "dispute"},
			wantChanged: true,
			wantStatus:  domain.StatusTimedOut,
		},
		{
			name:        "completed to pending rejected",
			from:        domain.StatusCompleted,
			req:         UpdateRequest{Status: domain.StatusPending},
			wantChanged: false,
			wantStatus:  domain.StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(now)
			env.repo.addUser(testCustomer())
			job := futureJob(env, tt.from)

			res, err := env.svc.Update(context.Background(), job.ID, tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantChanged, res.StatusChanged)
			assert.Equal(t, tt.wantStatus, job.Status)
			if tt.wantChanged {
				require.NotEmpty(t, env.repo.savedAudit)
				last := env.repo.savedAudit[len(env.repo.savedAudit)-1]
				assert.Equal(t, domain.AuditFieldStatus, last.Field)
				assert.Equal(t, tt.from, last.OldValue)
				assert.Equal(t, tt.wantStatus, last.NewValue)
			}
		})
	}
}

func TestUpdate_PersistFailureSendsNothing(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("withdraw from pending", func(t *testing.T) {
		env := newTestEnv(now)
		env.repo.addUser(testCustomer())
		env.repo.updateErr = errors.New("connection reset")
		job := futureJob(env, domain.StatusPending)

		_, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{Status: domain.StatusWithdrawBefore24})
		require.Error(t, err)

		assert.Empty(t, env.mailer.sent)
		assert.Empty(t, env.dispatcher.pushes)
	})

	t.Run("timedout back to pending", func(t *testing.T) {
		env := newTestEnv(now)
		env.repo.addUser(testCustomer())
		env.repo.translators = []domain.User{{ID: 10, Email: "tolk@example.com"}}
		env.repo.updateErr = errors.New("connection reset")
		job := futureJob(env, domain.StatusTimedOut)

		_, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{Status: domain.StatusPending})
		require.Error(t, err)

		assert.Empty(t, env.mailer.sent)
		assert.Empty(t, env.dispatcher.broadcasts)
	})
}

func TestUpdate_AssignedWithdrawNotifiesBothParties(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	translator := env.repo.addUser(&domain.User{ID: 10, Name: "Tolk Tolksson", Email: "tolk@example.com"})

	job := futureJob(env, domain.StatusAssigned)
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID:        501,
		JobID:     job.ID,
		UserID:    translator.ID,
		CreatedAt: now.Add(-time.Hour),
	})

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{Status: domain.StatusWithdrawBefore24})
	require.NoError(t, err)

	assert.True(t, res.StatusChanged)
	assert.Equal(t, domain.StatusWithdrawBefore24, job.Status)

	require.Len(t, env.mailer.sent, 2)
	assert.Equal(t, customer.Email, env.mailer.sent[0].To)
	assert.Equal(t, "status-changed-from-pending-or-assigned-customer", env.mailer.sent[0].Template)
	assert.Equal(t, translator.Email, env.mailer.sent[1].To)
	assert.Equal(t, "job-cancel-translator", env.mailer.sent[1].Template)

	require.Len(t, env.repo.savedAudit, 1)
	assert.Equal(t, domain.StatusAssigned, env.repo.savedAudit[0].OldValue)
	assert.Equal(t, domain.StatusWithdrawBefore24, env.repo.savedAudit[0].NewValue)
}

func TestUpdate_TimedoutBackToPending(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	customer := env.repo.addUser(testCustomer())
	env.repo.translators = []domain.User{{ID: 10, Email: "tolk@example.com"}}

	job := futureJob(env, domain.StatusTimedOut)
	job.EmailSent = true
	job.EmailSent16h = true
	job.EmailSent48h = true

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{Status: domain.StatusPending})
	require.NoError(t, err)

	assert.True(t, res.StatusChanged)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	assert.False(t, job.EmailSent)
	assert.False(t, job.EmailSent16h)
	assert.False(t, job.EmailSent48h)

	require.NotEmpty(t, env.mailer.sent)
	assert.Equal(t, "job-change-status-to-customer", env.mailer.sent[0].Template)
	assert.Equal(t, customer.Email, env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].Subject, "återöppnat")

	// Reopened booking goes straight back out to the pool.
	assert.Len(t, env.dispatcher.broadcasts, 1)
}

func TestUpdate_PendingAssignedWithTranslator(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	translator := env.repo.addUser(&domain.User{
		ID: 10, Role: domain.RoleTranslator, Name: "Tolk", Email: "tolk@example.com",
	})
	job := futureJob(env, domain.StatusPending)

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{
		Status:       domain.StatusAssigned,
		TranslatorID: translator.ID,
	})
	require.NoError(t, err)

	assert.True(t, res.StatusChanged)
	assert.True(t, res.TranslatorChanged)
	assert.Equal(t, domain.StatusAssigned, job.Status)

	// One live assignment for the new translator.
	require.Len(t, env.repo.assignments, 1)
	assert.Equal(t, translator.ID, env.repo.assignments[0].UserID)
	assert.True(t, env.repo.assignments[0].Active())

	templates := env.mailer.templates()
	assert.Contains(t, templates, "job-accepted")
	assert.Contains(t, templates, "job-changed-translator-new-translator")

	// Both parties get the session start reminder.
	require.Len(t, env.dispatcher.pushes, 2)
	for _, p := range env.dispatcher.pushes {
		assert.Equal(t, notify.TypeSessionStartRemind, p.Type)
	}
}

func TestUpdate_ReassignReleasesOldTranslator(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	oldTr := env.repo.addUser(&domain.User{ID: 10, Role: domain.RoleTranslator, Email: "old@example.com"})
	newTr := env.repo.addUser(&domain.User{ID: 11, Role: domain.RoleTranslator, Email: "new@example.com"})
	job := futureJob(env, domain.StatusAssigned)
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: oldTr.ID, CreatedAt: now.Add(-time.Hour), WillExpireAt: now.Add(24 * time.Hour),
	})

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{
		TranslatorEmail: "new@example.com",
	})
	require.NoError(t, err)

	assert.True(t, res.TranslatorChanged)
	assert.False(t, env.repo.assignments[0].Active())
	require.Len(t, env.repo.assignments, 2)
	assert.Equal(t, newTr.ID, env.repo.assignments[1].UserID)
	// New assignment inherits the running expiry deadline.
	assert.Equal(t, now.Add(24*time.Hour), env.repo.assignments[1].WillExpireAt)

	templates := env.mailer.templates()
	assert.Contains(t, templates, "job-changed-translator-customer")
	assert.Contains(t, templates, "job-changed-translator-old-translator")
	assert.Contains(t, templates, "job-changed-translator-new-translator")
}

func TestUpdate_SameTranslatorIsNoop(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	tr := env.repo.addUser(&domain.User{ID: 10, Role: domain.RoleTranslator, Email: "tolk@example.com"})
	job := futureJob(env, domain.StatusAssigned)
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: tr.ID, CreatedAt: now.Add(-time.Hour),
	})

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{TranslatorID: tr.ID})
	require.NoError(t, err)

	assert.False(t, res.TranslatorChanged)
	assert.Len(t, env.repo.assignments, 1)
	assert.Empty(t, env.mailer.sent)
}

func TestUpdate_DueAndLanguageChange(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	env.repo.languages[2] = "spanska"
	job := futureJob(env, domain.StatusPending)
	oldDue := job.Due
	newDue := now.Add(72 * time.Hour)

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{
		Due:            newDue,
		FromLanguageID: 2,
	})
	require.NoError(t, err)

	assert.True(t, res.DueChanged)
	assert.True(t, res.LanguageChanged)
	assert.Equal(t, newDue, job.Due)
	assert.Equal(t, int64(2), job.FromLanguageID)

	require.Len(t, env.repo.savedAudit, 2)
	assert.Equal(t, domain.AuditFieldDue, env.repo.savedAudit[0].Field)
	assert.Equal(t, oldDue.Format(time.DateTime), env.repo.savedAudit[0].OldValue)
	assert.Equal(t, domain.AuditFieldLanguage, env.repo.savedAudit[1].Field)
	assert.Equal(t, "franska", env.repo.savedAudit[1].OldValue)
	assert.Equal(t, "spanska", env.repo.savedAudit[1].NewValue)

	templates := env.mailer.templates()
	assert.Contains(t, templates, "job-changed-date")
	assert.Contains(t, templates, "job-changed-lang")
}

func TestUpdate_PastDueSuppressesNotifications(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	job := env.repo.addJob(&domain.Job{
		ID: 101, UserID: 1, FromLanguageID: 1, Status: domain.StatusPending,
		Due: now.Add(-time.Hour), CreatedAt: now.Add(-48 * time.Hour),
	})

	res, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{
		Due: now.Add(-30 * time.Minute),
	})
	require.NoError(t, err)

	// The change is stored and audited but nobody is notified about a
	// booking that already happened.
	assert.True(t, res.DueChanged)
	assert.Equal(t, 1, env.repo.updateCalls)
	assert.Empty(t, env.mailer.sent)
	assert.Empty(t, env.dispatcher.pushes)
}

func TestUpdate_SessionEndedMailOnCompletion(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	env.repo.addUser(testCustomer())
	tr := env.repo.addUser(&domain.User{ID: 10, Role: domain.RoleTranslator, Email: "tolk@example.com"})
	job := futureJob(env, domain.StatusStarted)
	env.repo.assignments = append(env.repo.assignments, &domain.Assignment{
		ID: 501, JobID: job.ID, UserID: tr.ID, CreatedAt: now.Add(-time.Hour),
	})

	_, err := env.svc.Update(context.Background(), job.ID, UpdateRequest{
		Status:        domain.StatusCompleted,
		AdminComments: "klart",
		SessionTime:   "1:30:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "1:30:00", job.SessionTime)
	require.NotNil(t, job.EndAt)
	assert.Equal(t, now, *job.EndAt)

	require.Len(t, env.mailer.sent, 2)
	for _, m := range env.mailer.sent {
		assert.Equal(t, "session-ended", m.Template)
		assert.Equal(t, "1 tim 30 min", m.Data["session_time"])
	}
	assert.Equal(t, "faktura", env.mailer.sent[0].Data["for_text"])
	assert.Equal(t, "lön", env.mailer.sent[1].Data["for_text"])
}
