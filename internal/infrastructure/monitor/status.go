package monitor

import "time"

type Status struct {
	Store     bool      `json:"store"`
	Driver    string    `json:"driver"`
	Sessions  int       `json:"sessions"`
	LastCheck time.Time `json:"last_check"`
}
