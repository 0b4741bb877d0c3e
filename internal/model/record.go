package model

import "time"

// RecordKind identifies one of the support-inbox record families.
type RecordKind string

const (
	KindEnquiry         RecordKind = "enquiry"
	KindContactMessage  RecordKind = "contact-message"
	KindReportedProduct RecordKind = "reported-product"
	KindUserFAQ         RecordKind = "user-faq"
)

// RecordKinds lists every record kind.
var RecordKinds = []RecordKind{
	KindEnquiry,
	KindContactMessage,
	KindReportedProduct,
	KindUserFAQ,
}

// Record statuses.
const (
	StatusPending  = "pending"
	StatusAnswered = "answered"
	StatusResolved = "resolved"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusOpen     = "open"
	StatusClosed   = "closed"
)

// Record is the common interface for items rendered by the list views.
// All four inbox record types implement it.
type Record interface {
	GetID() string
	GetKind() RecordKind
	GetStatus() string
	GetTitle() string
	GetSummary() string
	GetCreatedAt() time.Time
}

// Enquiry is a certification enquiry submitted through the public site.
type Enquiry struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Organisation string    `json:"organisation" db:"organisation"`
	Subject      string    `json:"subject" db:"subject"`
	Message      string    `json:"message" db:"message"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// ContactMessage is a general message from the contact form.
type ContactMessage struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	Reply     string    `json:"reply" db:"reply"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReportedProduct is a user report against a certified product.
type ReportedProduct struct {
	ID            string    `json:"id" db:"id"`
	ProductID     string    `json:"productId" db:"product_id"`
	ProductName   string    `json:"productName" db:"product_name"`
	Reason        string    `json:"reason" db:"reason"`
	ReporterEmail string    `json:"reporterEmail" db:"reporter_email"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// UserFAQ is a question submitted by a user for the public FAQ.
type UserFAQ struct {
	ID          string    `json:"id" db:"id"`
	Question    string    `json:"question" db:"question"`
	Answer      string    `json:"answer" db:"answer"`
	SubmittedBy string    `json:"submittedBy" db:"submitted_by"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (e Enquiry) GetID() string           { return e.ID }
func (e Enquiry) GetKind() RecordKind     { return KindEnquiry }
func (e Enquiry) GetStatus() string       { return e.Status }
func (e Enquiry) GetTitle() string        { return e.Subject }
func (e Enquiry) GetSummary() string      { return e.Name + " <" + e.Email + ">" }
func (e Enquiry) GetCreatedAt() time.Time { return e.CreatedAt }

func (c ContactMessage) GetID() string           { return c.ID }
func (c ContactMessage) GetKind() RecordKind     { return KindContactMessage }
func (c ContactMessage) GetStatus() string       { return c.Status }
func (c ContactMessage) GetTitle() string        { return truncate(c.Message, 60) }
func (c ContactMessage) GetSummary() string      { return c.Name + " <" + c.Email + ">" }
func (c ContactMessage) GetCreatedAt() time.Time { return c.CreatedAt }

func (r ReportedProduct) GetID() string           { return r.ID }
func (r ReportedProduct) GetKind() RecordKind     { return KindReportedProduct }
func (r ReportedProduct) GetStatus() string       { return r.Status }
func (r ReportedProduct) GetTitle() string        { return r.ProductName }
func (r ReportedProduct) GetSummary() string      { return truncate(r.Reason, 60) }
func (r ReportedProduct) GetCreatedAt() time.Time { return r.CreatedAt }

func (f UserFAQ) GetID() string           { return f.ID }
func (f UserFAQ) GetKind() RecordKind     { return KindUserFAQ }
func (f UserFAQ) GetStatus() string       { return f.Status }
func (f UserFAQ) GetTitle() string        { return truncate(f.Question, 60) }
func (f UserFAQ) GetSummary() string      { return "by " + f.SubmittedBy }
func (f UserFAQ) GetCreatedAt() time.Time { return f.CreatedAt }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Action is an operator decision on a record.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Transition returns the status a record of kind moves to under action, and
// whether that action applies to the kind at all. needsReply reports whether
// the backend expects accompanying text (a reply or an answer).
func Transition(kind RecordKind, action Action) (status string, needsReply bool, ok bool) {
	switch {
	case kind == KindEnquiry && action == ActionApprove:
		return StatusClosed, false, true
	case kind == KindContactMessage && action == ActionApprove:
		return StatusAnswered, true, true
	case kind == KindReportedProduct && action == ActionApprove:
		return StatusResolved, false, true
	case kind == KindUserFAQ && action == ActionApprove:
		return StatusAccepted, true, true
	case kind == KindUserFAQ && action == ActionReject:
		return StatusRejected, false, true
	default:
		return "", false, false
	}
}

// InitialStatus is the status a freshly submitted record of kind starts in.
func InitialStatus(kind RecordKind) string {
	if kind == KindEnquiry {
		return StatusOpen
	}
	return StatusPending
}
