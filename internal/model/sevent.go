package model

// Sevent is a scheduled special event: a date-range block on a station used
// for maintenance or blackout windows.  StationID nil means the block applies
// lab-wide.  Granularity is whole days, independent of time slots.
type Sevent struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	StationID *int64 `json:"station_id"`
	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
	CreatedOn string `json:"created_on"`
	UpdatedOn string `json:"updated_on"`
}

// SeventInput is the create/update body for special events.
type SeventInput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	StationID *int64 `json:"station_id"`
	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
}
