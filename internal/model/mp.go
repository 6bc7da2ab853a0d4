package model

import "time"

type MP struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Constituency     string  `json:"constituency"`
	State            string  `json:"state"`
	House            string  `json:"house"`
	Party            string  `json:"party"`
	AllocatedAmount  float64 `json:"allocatedAmount"`
	TotalExpenditure float64 `json:"totalExpenditure"`
}

func (m MP) Reference() MPReference {
	return MPReference{
		ID:           m.ID,
		Name:         m.Name,
		Constituency: m.Constituency,
		State:        m.State,
		House:        m.House,
	}
}

// MPSummary is a precomputed per-status aggregate maintained by ingestion.
type MPSummary struct {
	MPID        string
	Status      WorkStatus
	TotalWorks  int64
	TotalCost   float64
	RefreshedAt time.Time
}
