package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
)

// HostelType distinguishes boys and girls hostels.
type HostelType string

const (
	HostelTypeBoys  HostelType = "boys"
	HostelTypeGirls HostelType = "girls"
)

// Hostel represents one managed property with its fee schedule.
type Hostel struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Type       HostelType      `db:"type" json:"type"`
	Address    string          `db:"address" json:"address"`
	Fee6Month  decimal.Decimal `db:"fee_6_month" json:"fee_6_month"`
	Fee12Month decimal.Decimal `db:"fee_12_month" json:"fee_12_month"`
	Active     bool            `db:"active" json:"active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Fees exposes the hostel's fee schedule to the due calculator.
func (h Hostel) Fees() academic.FeeSchedule {
	return academic.FeeSchedule{SixMonth: h.Fee6Month, TwelveMonth: h.Fee12Month}
}

// HostelFilter captures filtering criteria for listing hostels.
type HostelFilter struct {
	Type   *HostelType
	Active *bool
	Search string
}
