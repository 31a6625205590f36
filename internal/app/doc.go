// Package app wires configuration into a running notifyd: storage backends,
// channel adapters, the dispatcher and its HTTP and Kafka front ends.
package app
