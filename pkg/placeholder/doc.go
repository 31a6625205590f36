// Package placeholder substitutes named variables in notification templates.
//
// Two syntaxes are accepted and treated the same way: {name} and {{name}}.
// Placeholders whose name is not present in the data map are removed from the
// output so unresolved template syntax never reaches a recipient.
//
//	body := placeholder.Render("Ticket #{{ticket_number}} for {client_name}", map[string]string{
//		"ticket_number": "42",
//		"client_name":   "Acme",
//	})
//	// body == "Ticket #42 for Acme"
//
// Templates must not nest placeholders. Values are inserted verbatim and are
// never scanned again, so a value that itself looks like a placeholder is kept.
package placeholder
