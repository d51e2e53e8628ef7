package model

// Settings is the lab-wide configuration read from settings.json in the data
// directory.  The core treats it as read-only external input; the only fields
// it computes with are the three load thresholds.
type Settings struct {
	RemoteSource     string         `json:"remote_source"`
	StationOrders    []StationOrder `json:"station_orders"`
	Tests            []string       `json:"tests"`
	ProjectEngineers []string       `json:"project_engineers"`
	TestingEngineers []string       `json:"testing_engineers"`
	LoadSetting      LoadSetting    `json:"loadSetting"`
}

// StationOrder pins the display position of a station in the UI.
type StationOrder struct {
	ID  int64 `json:"id"`
	Seq int   `json:"seq"`
}

// LoadSetting holds the daily reservation-count thresholds used to heat-map
// calendar days.
type LoadSetting struct {
	LowLoad    int `json:"low_load"`
	MediumLoad int `json:"medium_load"`
	HighLoad   int `json:"high_load"`
}
