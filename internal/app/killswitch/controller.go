// Package killswitch implements the emergency halt on autonomous training.
// Single writer (admin action), many readers (every admission check).
// State is persisted so a restart keeps an engaged halt in place.
package killswitch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/notify"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Controller manages the kill-switch flag.
type Controller struct {
	db       *sqlite.DB
	notifier notify.Notifier
}

// NewController creates a kill-switch controller. A nil notifier disables
// activation alerts.
func NewController(db *sqlite.DB, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{db: db, notifier: notifier}
}

// Activate engages the kill switch and fires the activation alert.
// Notification failure never rolls back the activation.
func (c *Controller) Activate(ctx context.Context, actor string) (domain.KillSwitchState, error) {
	st := domain.KillSwitchState{
		Active:      true,
		ActivatedAt: time.Now(),
		ActivatedBy: actor,
	}
	if err := c.db.SetKillSwitch(st); err != nil {
		return domain.KillSwitchState{}, fmt.Errorf("persist kill switch: %w", err)
	}
	metrics.KillSwitchActive.Set(1)

	// Fire-and-forget: the halt must hold even if the alert cannot be sent.
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := fmt.Sprintf("🚨 Sandbox kill switch ACTIVATED by %s at %s — all new battle admissions halted.",
			actor, st.ActivatedAt.UTC().Format(time.RFC3339))
		if err := c.notifier.Notify(notifyCtx, msg); err != nil {
			log.Printf("[killswitch] activation alert failed: %v", err)
		}
	}()

	return st, nil
}

// Deactivate clears the kill switch.
func (c *Controller) Deactivate(ctx context.Context, actor string) (domain.KillSwitchState, error) {
	st := domain.KillSwitchState{Active: false}
	if err := c.db.SetKillSwitch(st); err != nil {
		return domain.KillSwitchState{}, fmt.Errorf("persist kill switch: %w", err)
	}
	metrics.KillSwitchActive.Set(0)

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := fmt.Sprintf("Sandbox kill switch deactivated by %s — training admissions resume.", actor)
		if err := c.notifier.Notify(notifyCtx, msg); err != nil {
			log.Printf("[killswitch] deactivation alert failed: %v", err)
		}
	}()

	return st, nil
}

// Status returns the current state.
func (c *Controller) Status() (domain.KillSwitchState, error) {
	return c.db.KillSwitch()
}

// Engaged reads the flag fresh from the store. Used by every admission
// check; ambiguous state (read error) counts as engaged — fail safe.
func (c *Controller) Engaged() bool {
	st, err := c.db.KillSwitch()
	if err != nil {
		log.Printf("[killswitch] status read failed, failing safe: %v", err)
		return true
	}
	return st.Active
}
