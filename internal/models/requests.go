package models

// EnabledUpdate is the body of PATCH /api/devices/{id}.
type EnabledUpdate struct {
	Enabled *bool `json:"enabled"`
}
