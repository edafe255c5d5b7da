package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCheque PaymentMethod = "cheque"
	PaymentMethodOnline PaymentMethod = "online"
)

// Invoice records one fee payment. AcademicStats carries the billing period
// code derived from the invoice date at creation time; it is never entered
// by hand.
type Invoice struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	HostelID       string          `db:"hostel_id" json:"hostel_id"`
	InvoiceDate    time.Time       `db:"invoice_date" json:"invoice_date"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	PaymentPeriod  int             `db:"payment_period" json:"payment_period"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"payment_method"`
	PaymentDetails string          `db:"payment_details" json:"payment_details"`
	AcademicStats  string          `db:"academic_stats" json:"academic_stats"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// InvoiceFilter captures filtering criteria for listing invoices.
type InvoiceFilter struct {
	HostelID      string
	StudentID     string
	AcademicStats string
	Page          int
	PageSize      int
}
