package model

// Station is a physical EMC test station.  Reservations and special events
// reference it by id only; deleting a station does not touch them.
type Station struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description"`
	PhotoPath   string `json:"photo_path"`
	Status      string `json:"status"`
	CreatedOn   string `json:"created_on"`
	UpdatedOn   string `json:"updated_on"`
}

// Station status values.
const (
	StationInService    = "in_service"
	StationOutOfService = "out_of_service"
	StationMaintenance  = "maintenance"
)
