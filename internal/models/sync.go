package models

// SyncSource identifies an upstream feed consumed by the reconciliation adapter.
type SyncSource string

const (
	SyncSourceTechnicians  SyncSource = "technicians"
	SyncSourceAppointments SyncSource = "appointments"
	SyncSourceRoadAssists  SyncSource = "roadassists"
)

// SyncReport aggregates per-record outcomes of a reconciliation run. Errors
// holds a capped sample of failure messages so responses stay bounded.
type SyncReport struct {
	Source    SyncSource `json:"source"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []string   `json:"errors,omitempty"`
}
