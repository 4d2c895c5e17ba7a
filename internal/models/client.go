package models

import "time"

// TargetClient identifies one client administration targeted by a bulk
// action. Supplied by the caller (client list, action file, or a retry
// subset); not owned by the bulk core.
type TargetClient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClientSummary is one row of the accountant's client list as returned by
// the clients endpoint.
type ClientSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	KvKNumber    string    `json:"kvkNumber,omitempty"`
	YellowFlag   bool      `json:"yellowFlag"`
	LastActivity time.Time `json:"lastActivity,omitempty"`
}

// Target converts a list row into a bulk-action target.
func (c ClientSummary) Target() TargetClient {
	return TargetClient{ID: c.ID, Name: c.Name}
}
