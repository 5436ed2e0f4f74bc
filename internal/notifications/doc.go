// Package notifications delivers submission outcomes to operators.
//
// Workflow code depends only on the Service interface and the message
// builders in this package. Transports are chosen from configuration: smtp
// sends plain-text mail over implicit TLS, ntfy posts to a topic URL, and
// none discards messages. Delivery failures are returned to the caller, which
// logs them; they never affect ledger state.
package notifications
