package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

func boolPtr(v bool) *bool { return &v }

func testCustomer() *domain.User {
	return &domain.User{
		ID:    1,
		Role:  domain.RoleCustomer,
		Name:  "Anna",
		Email: "anna@example.com",
		Meta: domain.UserMeta{
			ConsumerType: "paid",
			Town:         "Stockholm",
		},
	}
}

func TestCreate_Validation(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		user      *domain.User
		req       CreateRequest
		wantField string
		wantMsg   string
	}{
		{
			name:    "translator cannot create",
			user:    &domain.User{ID: 2, Role: domain.RoleTranslator},
			req:     CreateRequest{FromLanguageID: 1, Duration: 30},
			wantMsg: "Translator can not create booking",
		},
		{
			name:      "missing language",
			user:      testCustomer(),
			req:       CreateRequest{Immediate: true, Duration: 30},
			wantField: "from_language_id",
		},
		{
			name:      "missing due date",
			user:      testCustomer(),
			req:       CreateRequest{FromLanguageID: 1, Duration: 30, DueTime: "10:00"},
			wantField: "due_date",
		},
		{
			name:      "missing due time",
			user:      testCustomer(),
			req:       CreateRequest{FromLanguageID: 1, Duration: 30, DueDate: "3/15/2024"},
			wantField: "due_time",
		},
		{
			name: "missing contact choice",
			user: testCustomer(),
			req: CreateRequest{
				FromLanguageID: 1, Duration: 30,
				DueDate: "3/15/2024", DueTime: "10:00",
			},
			wantField: "customer_phone_type",
			wantMsg:   "Du måste göra ett val här",
		},
		{
			name: "missing duration",
			user: testCustomer(),
			req: CreateRequest{
				FromLanguageID: 1,
				DueDate:        "3/15/2024", DueTime: "10:00",
				CustomerPhoneType: boolPtr(true),
			},
			wantField: "duration",
		},
		{
			name: "due in the past",
			user: testCustomer(),
			req: CreateRequest{
				FromLanguageID: 1, Duration: 30,
				DueDate: "3/1/2024", DueTime: "10:00",
				CustomerPhoneType: boolPtr(true),
			},
			wantField: "due_date",
			wantMsg:   "Can't create booking in the past",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(now)
			_, err := env.svc.Create(context.Background(), tt.user, tt.req)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, verr.Message)
			}
			assert.Empty(t, env.repo.jobs)
		})
	}
}

func TestCreate_Immediate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	res, err := env.svc.Create(context.Background(), testCustomer(), CreateRequest{
		FromLanguageID: 1,
		Immediate:      true,
		Duration:       30,
	})
	require.NoError(t, err)

	assert.Equal(t, "immediate", res.Type)
	job := env.repo.jobs[res.ID]
	require.NotNil(t, job)
	assert.Equal(t, now.Add(5*time.Minute), job.Due)
	assert.True(t, job.CustomerPhoneType)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, domain.JobTypePaid, job.JobType)
	assert.Equal(t, job.Due.Add(-48*time.Hour), job.WillExpireAt)
}

func TestCreate_Regular(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	user := testCustomer()
	user.Meta.ConsumerType = "rwsconsumer"
	res, err := env.svc.Create(context.Background(), user, CreateRequest{
		FromLanguageID:       1,
		Duration:             60,
		DueDate:              "3/15/2024",
		DueTime:              "10:30",
		CustomerPhysicalType: boolPtr(true),
		JobFor:               []string{"male", "normal", "certified"},
	})
	require.NoError(t, err)

	assert.Equal(t, "regular", res.Type)
	assert.Equal(t, []string{"Man", "normal", "certified"}, res.JobFor)
	assert.Equal(t, "Stockholm", res.CustomerTown)

	job := env.repo.jobs[res.ID]
	require.NotNil(t, job)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), job.Due)
	assert.Equal(t, domain.JobTypeRWS, job.JobType)
	assert.Equal(t, domain.GenderMale, job.Gender)
	assert.Equal(t, domain.CertifiedBoth, job.Certified)
	assert.True(t, job.CustomerPhysicalType)
	assert.False(t, job.CustomerPhoneType)
}

func TestDeriveJobFor(t *testing.T) {
	tests := []struct {
		name          string
		jobFor        []string
		wantGender    domain.Gender
		wantCertified domain.Certified
	}{
		{"empty", nil, domain.GenderNone, domain.CertifiedNone},
		{"male only", []string{"male"}, domain.GenderMale, domain.CertifiedNone},
		{"female normal", []string{"female", "normal"}, domain.GenderFemale, domain.CertifiedNormal},
		{"certified only", []string{"certified"}, domain.GenderNone, domain.CertifiedYes},
		{"normal and certified", []string{"normal", "certified"}, domain.GenderNone, domain.CertifiedBoth},
		{"normal and law", []string{"normal", "certified_in_law"}, domain.GenderNone, domain.CertifiedNLaw},
		{"normal and health", []string{"normal", "certified_in_health"}, domain.GenderNone, domain.CertifiedNHealth},
		{"law only", []string{"certified_in_law"}, domain.GenderNone, domain.CertifiedLaw},
		{"health only", []string{"certified_in_health"}, domain.GenderNone, domain.CertifiedHealth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gender, certified := deriveJobFor(tt.jobFor)
			assert.Equal(t, tt.wantGender, gender)
			assert.Equal(t, tt.wantCertified, certified)
		})
	}
}

func TestJobTypeFor(t *testing.T) {
	assert.Equal(t, domain.JobTypeRWS, jobTypeFor("rwsconsumer"))
	assert.Equal(t, domain.JobTypeUnpaid, jobTypeFor("ngo"))
	assert.Equal(t, domain.JobTypePaid, jobTypeFor("paid"))
	assert.Equal(t, domain.JobTypePaid, jobTypeFor(""))
}

func TestFinalizeJob(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	customer := env.repo.addUser(testCustomer())
	customer.Meta.Address = "Kungsgatan 1"
	customer.Meta.Instructions = "Ring på porttelefonen"
	env.repo.addJob(&domain.Job{
		ID:             101,
		UserID:         customer.ID,
		FromLanguageID: 1,
		Status:         domain.StatusPending,
		Due:            now.Add(48 * time.Hour),
	})
	env.repo.translators = []domain.User{
		{ID: 10, Role: domain.RoleTranslator, Email: "tolk@example.com"},
	}

	got, err := env.svc.FinalizeJob(context.Background(), FinalizeRequest{
		JobID:     101,
		UserEmail: "booking@example.com",
		Reference: "ref-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "booking@example.com", got.UserEmail)
	assert.Equal(t, "Kungsgatan 1", got.Address)
	assert.Equal(t, "Ring på porttelefonen", got.Instructions)
	assert.Equal(t, "Stockholm", got.Town)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "booking@example.com", env.mailer.sent[0].To)
	assert.Equal(t, "job-created", env.mailer.sent[0].Template)
	assert.Contains(t, env.mailer.sent[0].Subject, "#101")

	require.Len(t, env.dispatcher.broadcasts, 1)
	assert.Equal(t, 1, env.dispatcher.smsCalls)
}

func TestFinalizeJob_NotFound(t *testing.T) {
	env := newTestEnv(time.Now())
	_, err := env.svc.FinalizeJob(context.Background(), FinalizeRequest{JobID: 9})
	assert.True(t, errors.Is(err, domain.ErrJobNotFound))
}
