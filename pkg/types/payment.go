package types

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers, the React client does arithmetic on them
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type DonationType string

const (
	DonationTypeOneTime DonationType = "one-time"
	DonationTypeMonthly DonationType = "monthly"
	DonationTypeYearly  DonationType = "yearly"
)

type PaymentPurpose string

const (
	PurposeEducation     PaymentPurpose = "education"
	PurposeHealthcare    PaymentPurpose = "healthcare"
	PurposeEnvironment   PaymentPurpose = "environment"
	PurposePovertyRelief PaymentPurpose = "poverty-relief"
	PurposeGeneral       PaymentPurpose = "general"
)

// Payment is a card donation captured through Stripe.
type Payment struct {
	ID              string          `db:"id" json:"id"`
	DonorName       string          `db:"donor_name" json:"donorName,omitempty"`
	DonorEmail      string          `db:"donor_email" json:"donorEmail,omitempty"`
	DonorPhone      *string         `db:"donor_phone" json:"donorPhone,omitempty"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	DonationType    DonationType    `db:"donation_type" json:"donationType,omitempty"`
	Purpose         PaymentPurpose  `db:"purpose" json:"purpose,omitempty"`
	Message         *string         `db:"message" json:"message,omitempty"`
	StripePaymentID string          `db:"stripe_payment_id" json:"stripePaymentId,omitempty"`
	Status          PaymentStatus   `db:"status" json:"status"`
	TransactionDate time.Time       `db:"transaction_date" json:"transactionDate"`
	IsAnonymous     bool            `db:"is_anonymous" json:"isAnonymous"`
}

// Public drops the donor's contact details and message, leaving what any
// holder of the intent id may see.
func (p *Payment) Public() *Payment {
	return &Payment{
		ID:              p.ID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          p.Status,
		TransactionDate: p.TransactionDate,
	}
}

type CreatePaymentIntentInput struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	DonorName  string          `json:"donorName"`
	DonorEmail string          `json:"donorEmail"`
}

func (in *CreatePaymentIntentInput) Validate() error {
	if in.Amount.LessThan(MinDonationAmount) {
		return NewValidationError("amount", "amount must be a number of at least 1")
	}
	if strings.TrimSpace(in.DonorName) == "" {
		return NewValidationError("donorName", "donor name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.DonorEmail)); err != nil {
		return NewValidationError("donorEmail", "please include a valid email")
	}
	return nil
}

type ConfirmPaymentInput struct {
	DonorName       string          `json:"donorName"`
	DonorEmail      string          `json:"donorEmail"`
	DonorPhone      string          `json:"donorPhone"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	DonationType    DonationType    `json:"donationType"`
	Purpose         PaymentPurpose  `json:"purpose"`
	Message         string          `json:"message"`
	StripePaymentID string          `json:"stripePaymentId"`
	IsAnonymous     bool            `json:"isAnonymous"`
}

// Normalize trims fields and fills in defaults for optional enums.
func (in *ConfirmPaymentInput) Normalize() {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.DonorEmail = strings.ToLower(strings.TrimSpace(in.DonorEmail))
	in.DonorPhone = strings.TrimSpace(in.DonorPhone)
	in.Message = strings.TrimSpace(in.Message)
	in.StripePaymentID = strings.TrimSpace(in.StripePaymentID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if in.DonationType == "" {
		in.DonationType = DonationTypeOneTime
	}
	if in.Purpose == "" {
		in.Purpose = PurposeGeneral
	}
}

func (in *ConfirmPaymentInput) Validate() error {
	if in.DonorName == "" {
		return NewValidationError("donorName", "donor name is required")
	}
	if _, err := mail.ParseAddress(in.DonorEmail); err != nil {
		return NewValidationError("donorEmail", "please include a valid email")
	}
	if in.Amount.LessThan(MinDonationAmount) {
		return NewValidationError("amount", "amount must be a number of at least 1")
	}
	if in.StripePaymentID == "" {
		return NewValidationError("stripePaymentId", "payment id is required")
	}
	switch in.DonationType {
	case DonationTypeOneTime, DonationTypeMonthly, DonationTypeYearly:
	default:
		return NewValidationError("donationType", "donation type must be one-time, monthly or yearly")
	}
	switch in.Purpose {
	case PurposeEducation, PurposeHealthcare, PurposeEnvironment, PurposePovertyRelief, PurposeGeneral:
	default:
		return NewValidationError("purpose", "unknown purpose")
	}
	return nil
}

type MonthlyTotal struct {
	Year   int             `db:"year" json:"year"`
	Month  int             `db:"month" json:"month"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	Count  int64           `db:"count" json:"count"`
}

type PaymentSummary struct {
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalDonations int64           `json:"totalDonations"`
	MonthlyStats   []*MonthlyTotal `json:"monthlyStats"`
}
