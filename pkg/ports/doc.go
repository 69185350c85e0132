/*
Package ports defines the driven ports (interfaces) of the learner.

These interfaces decouple the learning core from external implementations, allowing
it to be driven by in-process oracles, remote workers and various storage backends.

# Key Interfaces

  - MembershipOracle: Answers "is w in the language?" for single words.
  - BatchOracle: Answers a whole serialized query tree in one round trip.
  - EquivalenceOracle: Checks a conjecture and returns a counterexample on mismatch.
  - KnowledgeStore: Persists and loads session Snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
