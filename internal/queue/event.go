// Package queue defines the message payloads exchanged over the broker and
// the background consumer that records them.
package queue

// ReservationCreatedEvent is published after a booking writes at least one
// row.  TimeSlots lists only the slots actually inserted; slots skipped as
// occupied are absent.  Consumers get enough context to log or notify without
// touching the primary database.
type ReservationCreatedEvent struct {
	ReservationDate string   `json:"reservation_date"`
	TimeSlots       []string `json:"time_slots"`
	StationID       int64    `json:"station_id"`
	ProjectEngineer string   `json:"project_engineer"`
	TestingEngineer string   `json:"testing_engineer"`
	ReservateBy     string   `json:"reservate_by"`
	Inserted        int      `json:"inserted"`
	CreatedAt       string   `json:"created_at"`
}

// ReservationQueueName is the durable queue both publisher and consumer
// declare.
const ReservationQueueName = "reservation.created"
