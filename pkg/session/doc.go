/*
Package session serializes access to persisted learning sessions.

A session is an alf.Learner stored as a domain.Snapshot. Every operation restores
the learner from the store, runs the caller's function and, for Update, saves the
new snapshot; nothing is saved when the function fails. Calls for the same session
are serialized by a per-session mutex that lives only while someone holds or waits
for it, and, when a ports.DistributedLocker is configured, by a lock shared across
server replicas.
*/
package session
