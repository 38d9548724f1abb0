package domain

// Audit field names recorded when an admin update mutates a job.
const (
	AuditFieldStatus     = "status"
	AuditFieldTranslator = "translator"
	AuditFieldDue        = "due"
	AuditFieldLanguage   = "language"
)

// AuditEntry records one changed field during a job update. Entries are
// persisted in the same transaction as the job mutation.
type AuditEntry struct {
	Field    string
	OldValue string
	NewValue string
}
