package directory

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no account matches the identifier.
	ErrNotFound = errors.New("directory: account not found")
	// ErrUnauthorized is returned on credential rejection (HTTP 401).
	ErrUnauthorized = errors.New("directory: invalid credentials")
	// ErrSchema is returned when a response body does not match its schema.
	ErrSchema = errors.New("directory: malformed response")
	// ErrUnavailable is returned on transport failures and 5xx responses.
	ErrUnavailable = errors.New("directory: backend unavailable")
	// ErrRejected is returned when the backend reports a failed operation.
	ErrRejected = errors.New("directory: request rejected")
)

// PersonalInfo mirrors the backend's nested personal block.
type PersonalInfo struct {
	Name    string `json:"name"`
	Father  string `json:"father,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Joined  string `json:"join,omitempty"`
	Address string `json:"address,omitempty"`
	Job     string `json:"job,omitempty"`
	Post    string `json:"post,omitempty"`
}

// BankDetails mirrors the backend's nested bank block.
type BankDetails struct {
	Bank   string `json:"bank"`
	Branch string `json:"branch"`
	IFSC   string `json:"ifsc"`
	Acc    string `json:"acc"`
	Salary string `json:"salary,omitempty"`
}

// SecurityDetails mirrors the backend's nested security block.
type SecurityDetails struct {
	Aadhaar string `json:"aadhaar"`
	Photo   string `json:"photo,omitempty"`
}

// Account is a directory account record plus the opaque storage key the
// backend returns alongside it.
type Account struct {
	UID      string          `json:"uid"`
	Status   string          `json:"status"`
	Personal PersonalInfo    `json:"personal"`
	Bank     BankDetails     `json:"bank"`
	Security SecurityDetails `json:"security"`
}

// LookupResult pairs an account with its storage key.
type LookupResult struct {
	Account Account
	Key     string
}

// Activity is the presence beacon payload.
type Activity struct {
	State     string `json:"state"`
	LastLogin string `json:"last_login,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	IP        string `json:"ip,omitempty"`
	Device    string `json:"device,omitempty"`
}

// ChangeRequest is the pending profile-change submission payload. Changes
// holds only the requested values; absent keys mean no change.
type ChangeRequest struct {
	RequestID string            `json:"requestId"`
	UID       string            `json:"uid"`
	Name      string            `json:"name"`
	Changes   map[string]string `json:"changes"`
	Timestamp int64             `json:"timestamp"`
	Status    string            `json:"status"`
}

// RecoveryTicket is the manual recovery submission payload.
type RecoveryTicket struct {
	TicketID string `json:"ticketId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

// Message is a notice-board entry exchanged with the backend.
type Message struct {
	Sender    string `json:"sender"`
	SenderUID string `json:"senderUid,omitempty"`
	Target    string `json:"target,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Incharge is a site supervisor contact card.
type Incharge struct {
	Name  string `json:"name"`
	Post  string `json:"post"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
}

// Payslip is a published salary slip summary.
type Payslip struct {
	SlipID      string `json:"slipId"`
	UID         string `json:"uid"`
	Name        string `json:"name"`
	SalaryMonth string `json:"salaryMonth"`
	NetPay      string `json:"netPay"`
	Date        string `json:"date,omitempty"`
}

// Attendance is a month's attendance summary.
type Attendance struct {
	Present   float64 `json:"present"`
	Leaves    float64 `json:"leaves"`
	Holidays  float64 `json:"holidays"`
	Late      float64 `json:"late"`
	Absent    float64 `json:"absent"`
	TotalDays float64 `json:"totalDays"`
}

// Client is the directory interface the engine consumes. Implementations
// must map transport and schema failures onto the package sentinels.
type Client interface {
	Lookup(ctx context.Context, identifier string) (*LookupResult, error)
	Login(ctx context.Context, uid, password string) (*LookupResult, error)
	UpdatePassword(ctx context.Context, uid, newPassword string) error
	SubmitChangeRequest(ctx context.Context, req ChangeRequest) error
	SubmitRecoveryTicket(ctx context.Context, ticket RecoveryTicket) error
	UpdateActivity(ctx context.Context, storageKey string, activity Activity) error

	Messages(ctx context.Context, uid string) ([]Message, error)
	SendMessage(ctx context.Context, msg Message) error
	Incharges(ctx context.Context) ([]Incharge, error)
	Payslips(ctx context.Context, uid string) ([]Payslip, error)
	MonthAttendance(ctx context.Context, uid, month string) (*Attendance, error)
}
