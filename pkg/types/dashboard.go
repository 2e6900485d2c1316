package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegistrationCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type PaymentTotals struct {
	TotalDonations int64           `json:"totalDonations"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

type DonationCounts struct {
	Pending         int64           `json:"pending"`
	Verified        int64           `json:"verified"`
	Rejected        int64           `json:"rejected"`
	CertificateSent int64           `json:"certificateSent"`
	VerifiedAmount  decimal.Decimal `json:"verifiedAmount"`
}

type RecentRegistration struct {
	ID           string             `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Email        string             `db:"email" json:"email"`
	Status       RegistrationStatus `db:"status" json:"status"`
	RegisteredAt time.Time          `db:"registered_at" json:"registeredAt"`
}

type RecentPayment struct {
	ID              string          `db:"id" json:"id"`
	DonorName       string          `db:"donor_name" json:"donorName"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Purpose         PaymentPurpose  `db:"purpose" json:"purpose"`
	TransactionDate time.Time       `db:"transaction_date" json:"transactionDate"`
}

type MonthlyCount struct {
	Year  int   `db:"year" json:"year"`
	Month int   `db:"month" json:"month"`
	Count int64 `db:"count" json:"count"`
}

type DashboardRecent struct {
	Registrations []*RecentRegistration `json:"registrations"`
	Payments      []*RecentPayment      `json:"payments"`
}

type DashboardTrends struct {
	Registrations []*MonthlyCount `json:"registrations"`
	Payments      []*MonthlyTotal `json:"payments"`
}

type Dashboard struct {
	Registrations RegistrationCounts `json:"registrations"`
	Payments      PaymentTotals      `json:"payments"`
	Donations     DonationCounts     `json:"donations"`
	Recent        DashboardRecent    `json:"recent"`
	Trends        DashboardTrends    `json:"trends"`
}
