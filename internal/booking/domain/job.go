package domain

import "time"

// Job status constants. Terminal statuses are retained forever; timedout jobs
// can come back to life through reopen, which clones them into a fresh row.
const (
	StatusPending               = "pending"
	StatusAssigned              = "assigned"
	StatusStarted               = "started"
	StatusCompleted             = "completed"
	StatusWithdrawBefore24      = "withdrawbefore24"
	StatusWithdrawAfter24       = "withdrawafter24"
	StatusTimedOut              = "timedout"
	StatusNotCarriedOutCustomer = "not_carried_out_customer"
)

// JobType is derived from the customer's consumer category at creation time.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// TranslatorType partitions the translator population per job type.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rwstranslator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// Certified encodes the certification requirement selected on the booking
// form, including the combined variants produced when "normal" is picked
// together with a certified option.
type Certified string

const (
	CertifiedNone    Certified = ""
	CertifiedNormal  Certified = "normal"
	CertifiedYes     Certified = "yes"
	CertifiedBoth    Certified = "both"
	CertifiedLaw     Certified = "law"
	CertifiedNLaw    Certified = "n_law"
	CertifiedHealth  Certified = "health"
	CertifiedNHealth Certified = "n_health"
)

// Gender preference for the translator; empty means no preference.
type Gender string

const (
	GenderNone   Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Translator certification levels as stored on translator profiles.
const (
	LevelCertified       = "Certified"
	LevelCertifiedLaw    = "Certified with specialisation in law"
	LevelCertifiedHealth = "Certified with specialisation in health care"
	LevelLayman          = "Layman"
	LevelReadCourses     = "Read Translation courses"
)

// Job is a single interpretation booking.
type Job struct {
	ID             int64
	UserID         int64
	FromLanguageID int64
	Immediate      bool
	Duration       int // minutes
	Status         string
	Gender         Gender
	Certified      Certified
	Due            time.Time
	JobType        JobType

	CustomerPhoneType    bool
	CustomerPhysicalType bool

	Town          string
	UserEmail     string
	Reference     string
	Address       string
	Instructions  string
	AdminComments string

	SessionTime string // recorded h:m:s once the session ended

	CreatedAt     time.Time
	WillExpireAt  time.Time
	EndAt         *time.Time
	WithdrawAt    *time.Time
	Ignore        bool
	IgnoreExpired bool

	// Reminder bookkeeping reset when a booking is re-published.
	EmailSent    bool
	EmailSent16h bool
	EmailSent48h bool
}

// PhysicalOnly reports whether the booking demands on-site attendance without
// offering a phone alternative. Such jobs are only broadcast to translators
// covering the customer's town.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerPhysicalType && !j.CustomerPhoneType
}
