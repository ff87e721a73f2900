// Package subscription implements the incremental live-query engine: it
// decides whether a completed write could affect a running query, and patches
// that query's cached result in place when it does, without a database round
// trip.
//
// ARCHITECTURE:
//
// A write produces one Event. The Registry broadcasts it to every live
// subscriber: entries whose Descriptor is irrelevant to the event are kept
// untouched, relevant ones get their notify callback invoked. The callback
// locks that subscriber's cached output, runs the merge engine, and queues a
// notification for the consumer only if the visible data actually changed.
//
// Correctness stance: the relevance test is conservative. It must never
// return false for an event that could change a result (a false negative is a
// data-consistency bug); a false positive only costs a wasted merge.
// Likewise, filtersProvablyDisjoint is a sound-but-incomplete static check:
// when in doubt it answers "might overlap".
//
// LOCKING:
//
// Two levels, always acquired in the same order: the registry lock first
// (held for the whole broadcast, which also serializes event delivery per
// subscriber), then one subscriber's output lock at a time. Never the
// reverse, never re-entered.
//
// ERROR POLICY:
//
// Row reconstruction can fail with a value.ConversionError. During the
// initial fetch that error surfaces to the caller and no subscription is
// created. During an incremental merge it is swallowed: the affected row or
// output keeps its last-known-good value and no notification fires. This is
// a deliberate contract (availability of the visible cache over
// crash-on-write) and is covered by tests.
package subscription
