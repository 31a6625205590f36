// Package whatsapp delivers notifications through the WhatsApp Business
// Cloud API as plain text messages.
//
// Free-form text only reaches users inside the 24 hour customer service
// window; outside it the API rejects the message and the attempt is
// recorded as an invalid address.
package whatsapp
