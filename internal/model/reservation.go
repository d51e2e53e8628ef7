package model

// Reservation mirrors a row of the reservations table in the Biz database.
// Dates are plain ISO strings ("2025-02-26"); TimeSlot holds a single slot
// code ("T1".."T5") once persisted.  CreatedOn/UpdatedOn are assigned by the
// database; UpdatedOn doubles as the optimistic-concurrency token on updates.
type Reservation struct {
	ID                 int64  `json:"id"`
	ReservationDate    string `json:"reservation_date"`
	TimeSlot           string `json:"time_slot"`
	StationID          int64  `json:"station_id"`
	ClientName         string `json:"client_name"`
	ProductName        string `json:"product_name"`
	Tests              string `json:"tests"`
	JobNo              string `json:"job_no"`
	ProjectEngineer    string `json:"project_engineer"`
	TestingEngineer    string `json:"testing_engineer"`
	PurposeDescription string `json:"purpose_description"`
	ContactName        string `json:"contact_name"`
	ContactPhone       string `json:"contact_phone"`
	Sales              string `json:"sales"`
	ReservateBy        string `json:"reservate_by"`
	ReservationStatus  string `json:"reservation_status"`
	CreatedOn          string `json:"created_on"`
	UpdatedOn          string `json:"updated_on"`
}

// Reservation status values.  "cancelled" is terminal; the HTTP layer maps a
// cancel to a hard delete, so cancelled rows normally never persist.
const (
	StatusNormal    = "normal"
	StatusCancelled = "cancelled"
	StatusLocked    = "locked"
)

// ReservationInput is the booking request body.  TimeSlot may contain a
// single slot code or a comma-separated list ("T1,T2"); the repository splits
// it into one row per slot.
type ReservationInput struct {
	ReservationDate    string `json:"reservation_date"`
	TimeSlot           string `json:"time_slot"`
	StationID          int64  `json:"station_id"`
	ClientName         string `json:"client_name"`
	ProductName        string `json:"product_name"`
	Tests              string `json:"tests"`
	JobNo              string `json:"job_no"`
	ProjectEngineer    string `json:"project_engineer"`
	TestingEngineer    string `json:"testing_engineer"`
	PurposeDescription string `json:"purpose_description"`
	ContactName        string `json:"contact_name"`
	ContactPhone       string `json:"contact_phone"`
	Sales              string `json:"sales"`
	ReservateBy        string `json:"reservate_by"`
	ReservationStatus  string `json:"reservation_status"`
}

// StationStatus marks a single time slot of a station/date as occupied.
// Slots that never appear in the list are free: absence means availability,
// which is the invariant the calendar rendering relies on.
type StationStatus struct {
	Occupied bool   `json:"occupied"`
	TimeSlot string `json:"time_slot"`
}
