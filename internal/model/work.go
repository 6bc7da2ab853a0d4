package model

import (
	"strings"
	"time"
)

type WorkStatus string

const (
	WorkStatusCompleted   WorkStatus = "completed"
	WorkStatusRecommended WorkStatus = "recommended"
	WorkStatusInProgress  WorkStatus = "in_progress"
)

func ParseWorkStatus(raw string) (WorkStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed":
		return WorkStatusCompleted, true
	case "recommended":
		return WorkStatusRecommended, true
	case "in_progress", "inprogress", "in-progress":
		return WorkStatusInProgress, true
	default:
		return "", false
	}
}

// AmountColumn is the works column holding the amount that counts for the status.
func (s WorkStatus) AmountColumn() string {
	if s == WorkStatusCompleted {
		return "cost"
	}
	return "recommended_amount"
}

// DateColumn is the works column populated for the status.
func (s WorkStatus) DateColumn() string {
	if s == WorkStatusCompleted {
		return "completed_date"
	}
	return "recommendation_date"
}

type MPReference struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Constituency string `json:"constituency"`
	State        string `json:"state"`
	House        string `json:"house"`
}

type Payment struct {
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

type Work struct {
	PK                 int64       `json:"-"`
	WorkID             string      `json:"workId"`
	Status             WorkStatus  `json:"status"`
	Description        string      `json:"description"`
	Category           string      `json:"category"`
	Cost               float64     `json:"cost"`
	RecommendedAmount  float64     `json:"recommendedAmount"`
	FinalAmount        *float64    `json:"finalAmount,omitempty"`
	MP                 MPReference `json:"mp"`
	RecommendationDate *time.Time  `json:"recommendationDate,omitempty"`
	CompletedDate      *time.Time  `json:"completedDate,omitempty"`
	Payments           []Payment   `json:"payments"`

	HasPayments  bool    `json:"hasPayments"`
	TotalPaid    float64 `json:"totalPaid"`
	PaymentCount int     `json:"paymentCount"`
}

// Amount returns the monetary amount that counts for the work's status.
func (w Work) Amount() float64 {
	if w.Status == WorkStatusCompleted {
		return w.Cost
	}
	return w.RecommendedAmount
}

// Date returns the date populated for the work's status, if any.
func (w Work) Date() *time.Time {
	if w.Status == WorkStatusCompleted {
		return w.CompletedDate
	}
	return w.RecommendationDate
}

// DerivePayments recomputes the payment aggregates from Payments.
func (w *Work) DerivePayments() {
	w.PaymentCount = len(w.Payments)
	w.HasPayments = w.PaymentCount > 0
	w.TotalPaid = 0
	for _, p := range w.Payments {
		w.TotalPaid += p.Amount
	}
	if w.Payments == nil {
		w.Payments = []Payment{}
	}
}
