package booking

import (
	"context"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// Criteria describes which translators qualify for one job. Computed fresh
// per dispatch, never cached.
type Criteria struct {
	TranslatorType domain.TranslatorType
	LanguageID     int64
	Gender         domain.Gender
	Levels         []string
	ExcludeUserIDs []int64
}

// JobCriteria describes which pending jobs one translator qualifies for, the
// mirror image of Criteria.
type JobCriteria struct {
	TranslatorID int64
	JobType      domain.JobType
	LanguageIDs  []int64
	Genders      []domain.Gender
	Certified    []domain.Certified
}

// TimeField selects which timestamp a from/to window applies to when listing.
type TimeField string

const (
	TimeFieldCreated TimeField = "created"
	TimeFieldDue     TimeField = "due"
)

// JobFilter narrows the admin job listing. Zero values mean "no constraint".
type JobFilter struct {
	IDs              []int64
	LanguageIDs      []int64
	Statuses         []string
	JobTypes         []domain.JobType
	CustomerEmails   []string
	TranslatorEmails []string
	ConsumerType     string

	CustomerID   int64
	TranslatorID int64

	TimeType TimeField
	From     time.Time
	To       time.Time

	Physical *bool
	Phone    *bool

	WillExpireFrom time.Time
	ExpiringOnly   bool // pending, due in the future, not flagged ignore_expired
	WithSession    bool // completed jobs carrying a recorded session time

	PageSize int
	Cursor   *JobCursor
}

// JobCursor marks the position after the last row of the previous page.
type JobCursor struct {
	CreatedAt time.Time
	JobID     int64
}

// Repository is the persistence collaborator for the booking core. The
// implementation guarantees that UpdateJob writes the job row and its audit
// entries in one transaction, and that AcceptJob is an atomic conditional
// insert (first accept wins, everyone else observes a conflict).
type Repository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job, audit []domain.AuditEntry) error
	ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error)
	PotentialJobs(ctx context.Context, c JobCriteria) ([]domain.Job, error)
	ExpiredPendingJobs(ctx context.Context, now time.Time) ([]domain.Job, error)
	SetIgnore(ctx context.Context, jobID int64, value bool) error
	SetIgnoreExpired(ctx context.Context, jobID int64, value bool) error

	// CurrentAssignment returns the active assignment for the job, falling
	// back to the most recently completed one, or nil when the job never had
	// a translator.
	CurrentAssignment(ctx context.Context, jobID int64) (*domain.Assignment, error)
	CreateAssignment(ctx context.Context, a *domain.Assignment) error
	CloseActiveAssignments(ctx context.Context, jobID int64, at time.Time) error
	CompleteAssignment(ctx context.Context, assignmentID int64, at time.Time, by int64) error

	// AcceptJob atomically creates an assignment and flips the job to
	// assigned, provided the job is still pending and unserved. Returns false
	// when another translator won the race.
	AcceptJob(ctx context.Context, jobID, translatorID int64, at time.Time) (bool, error)

	// TranslatorBusyAt reports whether the translator already holds an active
	// assignment for a job due at the same instant.
	TranslatorBusyAt(ctx context.Context, translatorID int64, due time.Time) (bool, error)

	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	EligibleTranslators(ctx context.Context, c Criteria) ([]domain.User, error)
	Blacklist(ctx context.Context, customerID int64) ([]int64, error)
	LanguageName(ctx context.Context, id int64) (string, error)
}
