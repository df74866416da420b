package types

// Outcome tells a caller of the pick-with-reservation flow whether the name was freshly allocated or recovered
// from an earlier request carrying the same reservation id.
type Outcome string

const (
	OutcomeReserved  Outcome = "RESERVED"
	OutcomeRecovered Outcome = "RECOVERED"
)

// Pick is the result of a pick-with-reservation request.
type Pick struct {
	Name          string  `json:"name"`
	ReservationID string  `json:"reservationId"`
	Outcome       Outcome `json:"message"`
}

// CustomName is a tenant admin supplied name together with its current allocation state.
type CustomName struct {
	Name  string `json:"name"`
	InUse bool   `json:"inuse"`
}

// CustomNamePage is one SSCAN page of custom names. Cursor is empty when the scan is complete.
type CustomNamePage struct {
	Items  []CustomName `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

// Category is a channel category of a guild and whether new channels under it get names.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Event is published when a channel binding changes.
type Event struct {
	Type      string `json:"type"`
	Tenant    string `json:"tenant"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name,omitempty"`
	At        int64  `json:"at"`
}

const (
	EventChannelAssigned = "channel.assigned"
	EventChannelCleared  = "channel.cleared"
)
