package dto

// Response statuses mirrored by every booking endpoint.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

type CreateBookingRequest struct {
	UserID               int64    `json:"user_id" binding:"required"`
	FromLanguageID       int64    `json:"from_language_id"`
	Immediate            bool     `json:"immediate"`
	DueDate              string   `json:"due_date"`
	DueTime              string   `json:"due_time"`
	Duration             int      `json:"duration"`
	CustomerPhoneType    *bool    `json:"customer_phone_type"`
	CustomerPhysicalType *bool    `json:"customer_physical_type"`
	JobFor               []string `json:"job_for"`
}

type CreateBookingResponse struct {
	Status       string   `json:"status"`
	ID           int64    `json:"id,omitempty"`
	Type         string   `json:"type,omitempty"`
	JobFor       []string `json:"job_for,omitempty"`
	CustomerTown string   `json:"customer_town,omitempty"`
	CustomerType string   `json:"customer_type,omitempty"`
	Message      string   `json:"message,omitempty"`
	FieldName    string   `json:"field_name,omitempty"`
}

type FinalizeBookingRequest struct {
	UserEmail    string `json:"user_email"`
	Reference    string `json:"reference"`
	Address      string `json:"address"`
	Instructions string `json:"instructions"`
	Town         string `json:"town"`
}

type UpdateBookingRequest struct {
	Status          string `json:"status"`
	AdminComments   string `json:"admin_comments"`
	Due             string `json:"due"` // "2006-01-02 15:04:05"
	FromLanguageID  int64  `json:"from_language_id"`
	TranslatorID    int64  `json:"translator_id"`
	TranslatorEmail string `json:"translator_email"`
	Reference       string `json:"reference"`
	SessionTime     string `json:"session_time"`
}

type ListBookingsRequest struct {
	IDs              []int64  `form:"id"`
	LanguageIDs      []int64  `form:"lang"`
	Statuses         []string `form:"status"`
	JobTypes         []string `form:"job_type"`
	CustomerEmails   []string `form:"customer_email"`
	TranslatorEmails []string `form:"translator_email"`
	ConsumerType     string   `form:"consumer_type"`
	TimeType         string   `form:"filter_timetype"`
	From             string   `form:"from"`
	To               string   `form:"to"`
	Physical         *bool    `form:"physical"`
	Phone            *bool    `form:"phone"`
	ExpiryFrom       string   `form:"expiry_from"`
	PageSize         int      `form:"page_size"`
	Cursor           string   `form:"cursor"`
}

type UserBookingsResponse struct {
	UserType      string       `json:"user_type"`
	EmergencyJobs []BookingDTO `json:"emergency_jobs"`
	NormalJobs    []BookingDTO `json:"normal_jobs"`
}

type ListBookingsResponse struct {
	Bookings   []BookingDTO `json:"bookings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BookingDTO struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"user_id"`
	FromLanguageID       int64  `json:"from_language_id"`
	Immediate            bool   `json:"immediate"`
	Duration             int    `json:"duration"`
	Status               string `json:"status"`
	Gender               string `json:"gender,omitempty"`
	Certified            string `json:"certified,omitempty"`
	Due                  string `json:"due"`
	JobType              string `json:"job_type"`
	CustomerPhoneType    bool   `json:"customer_phone_type"`
	CustomerPhysicalType bool   `json:"customer_physical_type"`
	Town                 string `json:"town,omitempty"`
	UserEmail            string `json:"user_email,omitempty"`
	Reference            string `json:"reference,omitempty"`
	AdminComments        string `json:"admin_comments,omitempty"`
	SessionTime          string `json:"session_time,omitempty"`
	CreatedAt            string `json:"created_at"`
	WillExpireAt         string `json:"will_expire_at"`
	EndAt                string `json:"end_at,omitempty"`
	WithdrawAt           string `json:"withdraw_at,omitempty"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	FieldName string `json:"field_name,omitempty"`
	ID        int64  `json:"id,omitempty"`
}
