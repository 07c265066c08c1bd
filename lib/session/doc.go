// Package session drives many independent IRC sessions to a converged state
// from a host's periodic tick, without ever blocking that tick.
//
// # Overview
//
// A caller declares sessions (endpoint, credentials, desired channels and
// capabilities) on a Manager and then calls Manager.Tick once per host loop
// iteration with the elapsed time. Each tick runs every live session through
// the same ordered pipeline:
//
//  1. establish  - start a connect attempt for sessions that need one and poll
//     in-flight attempts once;
//  2. handshake  - send PASS (optional), NICK and USER (optional) once a
//     connection exists;
//  3. reconcile  - JOIN/PART the difference between desired and server-observed
//     channels and send one combined CAP REQ, but only after registration or
//     when the desired sets changed;
//  4. keepalive  - advance the idle stopwatch and PING when it crosses the
//     threshold;
//  5. receive    - drain the inbound stream, publish every message and run the
//     built-in reactions (PONG, registration confirmation);
//  6. flush      - send commands queued by the caller with Manager.Send.
//
// Every outbound command from every step goes through one dispatch function.
// A failed send, a read error or the end of the stream drops the connection and
// returns the session to Disconnected; the next tick starts a new attempt.
//
// # State machine
//
//	Disconnected -> Connecting -> AwaitingHandshake -> Identifying -> Registered
//	     ^              |                |                  |             |
//	     +--------------+----------------+------------------+-------------+
//
// Declared sessions start in Connecting. Only a server welcome (001) moves a
// session from Identifying to Registered.
//
// # Events
//
// Inbound messages are published twice from the same point: to global
// subscribers (Manager.Subscribe) and to subscribers of the originating session
// (Manager.SubscribeSession). Subscriptions are buffered channels; a full
// subscriber loses the event and the loss is counted, so a slow consumer can
// never stall a tick.
//
// # Concurrency
//
// Tick, the caller-facing setters and Remove may be called from different
// goroutines. Each session is locked for the whole of its pipeline pass. With
// Config.Workers above one, sessions are processed in parallel.
package session
