package domain

// Role distinguishes the two caller populations.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTranslator Role = "translator"
)

// User is a marketplace participant. Meta carries the role-specific profile
// fields; customer fields and translator fields never overlap.
type User struct {
	ID     int64
	Role   Role
	Name   string
	Email  string
	Mobile string
	Meta   UserMeta
}

// UserMeta holds profile attributes loaded alongside the user row.
type UserMeta struct {
	// Customer profile.
	ConsumerType string // rwsconsumer, ngo, paid
	CustomerType string
	Town         string
	Address      string
	Instructions string

	// Translator profile.
	TranslatorType  TranslatorType
	Gender          Gender
	TranslatorLevel string
	Languages       []int64
	Towns           []string

	// Notification preferences.
	NotGetNotification bool
	NotGetNighttime    bool
	NotGetEmergency    bool
}

// IsCustomer reports whether the user created bookings rather than serving
// them.
func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }

// IsTranslator reports whether the user fulfills bookings.
func (u *User) IsTranslator() bool { return u.Role == RoleTranslator }

// CoversTown reports whether a translator serves on-site bookings in town.
func (u *User) CoversTown(town string) bool {
	for _, t := range u.Meta.Towns {
		if t == town {
			return true
		}
	}
	return false
}
