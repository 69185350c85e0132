/*
Package domain contains the core domain models shared by the learning engine,
its adapters and the command line tools.

It defines the vocabulary of active automata learning: alphabet Symbols, Words,
finite Automata (both the targets being learned and the conjectures derived from an
observation table), persisted Snapshots of a learning session and the lifecycle
events emitted while learning. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Word: A finite sequence of alphabet Symbols, the unit of every membership query.
  - Automaton: A (possibly nondeterministic) finite automaton in serializable form.
  - Machine: A compiled Automaton ready for fast simulation.
  - Counterexample: A word the true language and a conjecture disagree on.
  - Snapshot: The persisted state of a learning session.
*/
package domain
