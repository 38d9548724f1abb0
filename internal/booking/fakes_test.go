package booking

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

// fakeExpiry stamps a recognizable deadline so tests can assert the policy
// was consulted.
type fakeExpiry struct{}

func (fakeExpiry) WillExpireAt(due, createdAt time.Time) time.Time {
	return due.Add(-48 * time.Hour)
}

type sentMail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]any) error {
	m.sent = append(m.sent, sentMail{To: toEmail, Subject: subject, Template: template, Data: data})
	return m.err
}

func (m *fakeMailer) templates() []string {
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Template)
	}
	return out
}

type sentPush struct {
	UserID int64
	Type   string
	Text   string
}

type fakeDispatcher struct {
	broadcasts [][]domain.User
	lastData   map[string]any
	pushes     []sentPush
	smsCalls   int
}

func (d *fakeDispatcher) NotifyTranslators(ctx context.Context, translators []domain.User, job *domain.Job, language string, data map[string]any) int {
	d.broadcasts = append(d.broadcasts, translators)
	d.lastData = data
	return len(translators)
}

func (d *fakeDispatcher) PushToUser(ctx context.Context, user *domain.User, job *domain.Job, notificationType, text string) bool {
	d.pushes = append(d.pushes, sentPush{UserID: user.ID, Type: notificationType, Text: text})
	return true
}

func (d *fakeDispatcher) SMSTranslators(ctx context.Context, translators []domain.User, job *domain.Job, fallbackTown string) int {
	d.smsCalls++
	return len(translators)
}

// fakeRepo is an in-memory Repository recording every mutation.
type fakeRepo struct {
	jobs        map[int64]*domain.Job
	users       map[int64]*domain.User
	assignments []*domain.Assignment
	translators []domain.User
	blacklisted map[int64][]int64
	languages   map[int64]string

	nextJobID        int64
	nextAssignmentID int64

	acceptWins bool
	busy       bool
	updateErr  error

	listResult    []domain.Job
	expiredJobs   []domain.Job
	potentialJobs []domain.Job

	lastCriteria    *Criteria
	lastJobCriteria *JobCriteria
	lastFilter      *JobFilter
	savedAudit      []domain.AuditEntry
	updateCalls     int
	closedAt        []time.Time
	completedIDs    []int64
	ignore          map[int64]bool
	ignoreExpired   map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		jobs:             make(map[int64]*domain.Job),
		users:            make(map[int64]*domain.User),
		blacklisted:      make(map[int64][]int64),
		languages:        map[int64]string{1: "franska"},
		nextJobID:        100,
		nextAssignmentID: 500,
		ignore:           make(map[int64]bool),
		ignoreExpired:    make(map[int64]bool),
	}
}

func (r *fakeRepo) addJob(job *domain.Job) *domain.Job {
	r.jobs[job.ID] = job
	return job
}

func (r *fakeRepo) addUser(u *domain.User) *domain.User {
	r.users[u.ID] = u
	return u
}

func (r *fakeRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	r.nextJobID++
	job.ID = r.nextJobID
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeRepo) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (r *fakeRepo) UpdateJob(ctx context.Context, job *domain.Job, audit []domain.AuditEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.jobs[job.ID] = job
	r.savedAudit = append(r.savedAudit, audit...)
	r.updateCalls++
	return nil
}

func (r *fakeRepo) ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	r.lastFilter = &f
	return r.listResult, nil
}

func (r *fakeRepo) ExpiredPendingJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	return r.expiredJobs, nil
}

func (r *fakeRepo) PotentialJobs(ctx context.Context, c JobCriteria) ([]domain.Job, error) {
	r.lastJobCriteria = &c
	return r.potentialJobs, nil
}

func (r *fakeRepo) SetIgnore(ctx context.Context, jobID int64, value bool) error {
	r.ignore[jobID] = value
	return nil
}

func (r *fakeRepo) SetIgnoreExpired(ctx context.Context, jobID int64, value bool) error {
	r.ignoreExpired[jobID] = value
	return nil
}

func (r *fakeRepo) CurrentAssignment(ctx context.Context, jobID int64) (*domain.Assignment, error) {
	var latest *domain.Assignment
	for _, a := range r.assignments {
		if a.JobID != jobID {
			continue
		}
		if a.Active() {
			return a, nil
		}
		if a.CompletedAt != nil && (latest == nil || a.CreatedAt.After(latest.CreatedAt)) {
			latest = a
		}
	}
	return latest, nil
}

func (r *fakeRepo) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	r.nextAssignmentID++
	a.ID = r.nextAssignmentID
	r.assignments = append(r.assignments, a)
	return nil
}

func (r *fakeRepo) CloseActiveAssignments(ctx context.Context, jobID int64, at time.Time) error {
	r.closedAt = append(r.closedAt, at)
	for _, a := range r.assignments {
		if a.JobID == jobID && a.Active() {
			t := at
			a.CancelAt = &t
		}
	}
	return nil
}

func (r *fakeRepo) CompleteAssignment(ctx context.Context, assignmentID int64, at time.Time, by int64) error {
	r.completedIDs = append(r.completedIDs, assignmentID)
	for _, a := range r.assignments {
		if a.ID == assignmentID {
			t := at
			a.CompletedAt = &t
			a.CompletedBy = &by
		}
	}
	return nil
}

func (r *fakeRepo) AcceptJob(ctx context.Context, jobID, translatorID int64, at time.Time) (bool, error) {
	if !r.acceptWins {
		return false, nil
	}
	r.nextAssignmentID++
	r.assignments = append(r.assignments, &domain.Assignment{
		ID:        r.nextAssignmentID,
		JobID:     jobID,
		UserID:    translatorID,
		CreatedAt: at,
	})
	if job, ok := r.jobs[jobID]; ok {
		job.Status = domain.StatusAssigned
	}
	return true, nil
}

func (r *fakeRepo) TranslatorBusyAt(ctx context.Context, translatorID int64, due time.Time) (bool, error) {
	return r.busy, nil
}

func (r *fakeRepo) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeRepo) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeRepo) EligibleTranslators(ctx context.Context, c Criteria) ([]domain.User, error) {
	r.lastCriteria = &c
	out := make([]domain.User, 0, len(r.translators))
	for _, tr := range r.translators {
		skip := false
		for _, id := range c.ExcludeUserIDs {
			if tr.ID == id {
				skip = true
			}
		}
		if !skip {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *fakeRepo) Blacklist(ctx context.Context, customerID int64) ([]int64, error) {
	return r.blacklisted[customerID], nil
}

func (r *fakeRepo) LanguageName(ctx context.Context, id int64) (string, error) {
	name, ok := r.languages[id]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return name, nil
}

// testEnv bundles a service with its fakes at a fixed instant.
type testEnv struct {
	repo       *fakeRepo
	mailer     *fakeMailer
	dispatcher *fakeDispatcher
	now        time.Time
	svc        *Service
}

func newTestEnv(now time.Time) *testEnv {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	dispatcher := &fakeDispatcher{}
	svc := NewService(repo, mailer, dispatcher, fakeExpiry{}, fakeClock{now: now}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &testEnv{repo: repo, mailer: mailer, dispatcher: dispatcher, now: now, svc: svc}
}
