// Package events forwards registry events to a message broker.
//
// The registry commits every state change to its event journal. PublishingJournal
// wraps a journal so that each successfully appended event is also handed to an
// interfaces.EventPublisher. Publishing is best effort: a broker outage is logged
// and never fails the registry call, and consumers that need every event replay
// the journal through the public events endpoint.
//
// NATSPublisher publishes the JSON encoded event to the subject
// "<prefix>.<event type>", for example "trustedcert.CertificateRevoked", with the
// event sequence number in the Nats-Msg-Id header.
package events
