// Package regcache provides a thread-safe in-memory store of named
// fixed-width uint16 registers with asynchronous change notification.
// Focused on sharing peripheral/sensor readings between producer and
// consumer goroutines without polling.
//
// Features:
//
//   - Entries are kept in insertion order and addressed by bounded-length keys.
//   - Every operation is exclusive on its cache instance, no torn reads or writes.
//   - Value changes are dispatched to per-entry listeners on worker pool goroutines.
//   - Notification is fire-and-forget, producers never block on consumers.
//   - Listeners can be fanned out or throttled to protect from chatty producers.
//   - Allows logging, stats collection.
//   - Propagates context to allow better control of application components.
package regcache
