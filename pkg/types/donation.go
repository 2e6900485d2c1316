package types

import (
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationStatusPending         DonationStatus = "pending"
	DonationStatusVerified        DonationStatus = "verified"
	DonationStatusRejected        DonationStatus = "rejected"
	DonationStatusCertificateSent DonationStatus = "certificate_sent"
)

var DonationStatuses = []DonationStatus{
	DonationStatusPending,
	DonationStatusVerified,
	DonationStatusRejected,
	DonationStatusCertificateSent,
}

func (s DonationStatus) Valid() bool {
	for _, v := range DonationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// MinDonationAmount is the smallest accepted donation, in whole currency units.
var MinDonationAmount = decimal.NewFromInt(1)

// ProofReference points at the externally stored proof of payment.
type ProofReference struct {
	URL        string `db:"proof_url" json:"url"`
	StorageKey string `db:"proof_storage_key" json:"storageKey"`
}

// Donation is a manually submitted bank transfer / UPI donation awaiting
// (or past) admin verification.
type Donation struct {
	ID            string          `db:"id" json:"id"`
	DonorName     string          `db:"donor_name" json:"donorName"`
	Email         string          `db:"email" json:"email"`
	Phone         *string         `db:"phone" json:"phone,omitempty"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	TransactionID string          `db:"transaction_id" json:"transactionId"`
	Message       *string         `db:"message" json:"message,omitempty"`

	ProofReference `json:"paymentProof"`

	Status          DonationStatus `db:"status" json:"status"`
	ReceiptNumber   *string        `db:"receipt_number" json:"receiptNumber,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	VerifiedBy      *string        `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time     `db:"verified_at" json:"verifiedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

type DonationFilter struct {
	Status *DonationStatus
	Limit  uint64
}

// SubmitDonationInput is the public proof-of-payment submission.
type SubmitDonationInput struct {
	DonorName     string          `form:"donorName" json:"donorName"`
	Email         string          `form:"email" json:"email"`
	Phone         string          `form:"phone" json:"phone"`
	Amount        decimal.Decimal `form:"amount" json:"amount"`
	TransactionID string          `form:"transactionId" json:"transactionId"`
	Message       string          `form:"message" json:"message"`
}

// Normalize trims every field and lowercases the email.
func (in *SubmitDonationInput) Normalize() {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	in.Message = strings.TrimSpace(in.Message)
}

func (in *SubmitDonationInput) Validate() error {
	if in.DonorName == "" {
		return NewValidationError("donorName", "donor name is required")
	}
	if in.Email == "" {
		return NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return NewValidationError("email", "please include a valid email")
	}
	if in.Amount.IsZero() {
		return NewValidationError("amount", "amount is required")
	}
	if in.Amount.LessThan(MinDonationAmount) {
		return NewValidationError("amount", "amount must be at least 1")
	}
	if in.TransactionID == "" {
		return NewValidationError("transactionId", "transaction id is required")
	}
	return nil
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitReceipt is what the public caller sees after a submission.
type SubmitReceipt struct {
	ID        string          `json:"id"`
	DonorName string          `json:"donorName"`
	Amount    decimal.Decimal `json:"amount"`
	Status    DonationStatus  `json:"status"`
}

type RejectDonationInput struct {
	Reason string `json:"reason"`
}
