package types

import "time"

// Simulation is a saved what-if: a broadcast schedule priced on a plan at
// the moment it was recorded. Later catalog changes do not rewrite it.
type Simulation struct {
	ID              string    `json:"id"`
	Label           string    `json:"label"`
	FriendsCount    int64     `json:"friendsCount"`
	WeeklyFrequency int64     `json:"weeklyFrequency"`
	MonthlyMessages int64     `json:"monthlyMessages"`
	PlanID          PlanID    `json:"planId"`
	MonthlyCost     int64     `json:"monthlyCost"`
	CanSend         bool      `json:"canSend"`
	SuggestedPlanID PlanID    `json:"suggestedPlanId"`
	CreatedAt       time.Time `json:"createdAt"`
}
