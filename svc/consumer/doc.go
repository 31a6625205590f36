// Package consumer feeds events from a Kafka topic into the dispatcher.
//
// Each message value is a JSON dispatch.Event. Messages are processed one at
// a time and committed after dispatch, so a crash replays at most the
// message in flight. Malformed messages are logged, optionally copied to a
// dead letter topic, and committed so they never block the partition.
package consumer
