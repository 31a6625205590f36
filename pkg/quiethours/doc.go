// Package quiethours decides whether non-urgent notifications must be held
// back because the current wall-clock time falls inside a silence window.
//
// A window is described by a start and end time of day. When start is
// earlier than end the window lies within one day (13:00-14:00). When start
// is equal to or later than end the window wraps midnight (22:00-08:00).
//
//	policy, err := quiethours.NewPolicy(true, "22:00", "08:00", time.UTC)
//	if err != nil {
//		return err
//	}
//	if policy.Suppressed(time.Now()) {
//		// skip non-urgent sends
//	}
//
// Suppressed notifications are not queued for later delivery.
package quiethours
