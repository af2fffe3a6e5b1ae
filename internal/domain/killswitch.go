package domain

import "time"

// KillSwitchState is the process-wide halt flag for autonomous training.
// Single writer (admin action), many readers (every admission check).
type KillSwitchState struct {
	Active      bool      `json:"active"`
	ActivatedAt time.Time `json:"activated_at,omitempty"`
	ActivatedBy string    `json:"activated_by,omitempty"`
}
