// Package dispatch turns business events into notifications.
//
// A Dispatcher takes an Event (type, flat payload, business reference),
// loads the active templates for the event type, renders each template
// against the payload, resolves recipients per channel, applies the quiet
// hours gate and fans out one send per (channel, address) pair. Every
// attempt that reaches a channel adapter, or was due to but could not start
// before the dispatch deadline, produces exactly one LogEntry written after
// the outcome is known.
//
// Failures never escape Dispatch. A failing recipient, an unreachable role
// oracle or a broken template is reported in Result and in the delivery
// log; the caller always gets a Result back.
//
//	d := dispatch.New(templates, registry, deliveryLog,
//		dispatch.WithRoleOracle(roles),
//		dispatch.WithQuietHours(policy),
//		dispatch.WithTimeout(30*time.Second),
//	)
//	res := d.Dispatch(ctx, dispatch.Event{
//		Type:      "ticket_created",
//		Payload:   map[string]string{"ticket_number": "42", "client_email": "a@acme.com"},
//		Reference: dispatch.Reference{Type: "ticket", ID: "42"},
//	})
//
// Recipient addresses come from two places: the role oracle for admins, and
// well-known payload keys for the client, the assignee and the contact
// ("client_email", "assigned_phone", "contact_telegram_id", ...). The
// actor's own addresses ("actor_email" and friends, or Event.Actor) are
// removed from every channel so nobody is notified about their own action.
package dispatch
