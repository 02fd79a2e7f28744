package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecoveryStatus tracks the dunning progress of a failed charge
type RecoveryStatus string

const (
	RecoveryPending   RecoveryStatus = "pending"
	RecoveryContacted RecoveryStatus = "contacted"
	RecoveryResolved  RecoveryStatus = "resolved"
)

// PriorityLevel ranks failed charges for follow-up
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// FailedCharge is a subscription payment that did not go through.
// The collection is owned elsewhere; the ledger only reads it.
type FailedCharge struct {
	ID               string          `json:"id"`
	SubscriptionID   string          `json:"subscriptionId"`
	CustomerName     string          `json:"customerName"`
	CustomerEmail    string          `json:"customerEmail"`
	FailedAmount     decimal.Decimal `json:"failedAmount"`
	FailureReason    string          `json:"failureReason"`
	FailureDate      time.Time       `json:"failureDate"`
	RecoveryStatus   RecoveryStatus  `json:"recoveryStatus"`
	PriorityLevel    PriorityLevel   `json:"priorityLevel"`
	RecoveryNotes    string          `json:"recoveryNotes"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Normalize fills the documented defaults for blank status and priority
func (c FailedCharge) Normalize() FailedCharge {
	c.RecoveryStatus = RecoveryStatus(strings.ToLower(strings.TrimSpace(string(c.RecoveryStatus))))
	if c.RecoveryStatus == "" {
		c.RecoveryStatus = RecoveryPending
	}
	c.PriorityLevel = PriorityLevel(strings.ToLower(strings.TrimSpace(string(c.PriorityLevel))))
	if c.PriorityLevel == "" {
		c.PriorityLevel = PriorityMedium
	}
	return c
}

// CustomerDisplayName joins first and last names when no full name is stored
func CustomerDisplayName(fullName, firstName, lastName string) string {
	if strings.TrimSpace(fullName) != "" {
		return fullName
	}
	return strings.TrimSpace(firstName + " " + lastName)
}
