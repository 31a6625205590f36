// Package sms delivers text messages through a JSON SMS gateway.
//
// The gateway is expected to accept
//
//	POST {GatewayURL}
//	Authorization: Bearer {APIKey}
//	{"from": "...", "to": "+15550102030", "text": "..."}
//
// and to answer with a JSON object carrying the message identifier in
// "id" or "message_id". Most aggregators either speak this shape or sit
// behind a thin proxy that does.
package sms
