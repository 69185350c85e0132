/*
Package alf is an active automata learning library: it infers a finite automaton
for an unknown regular language from membership answers and counterexamples
supplied by an external oracle.

It pairs a versioned knowledge store (pkg/knowledge) with an observation table
engine (pkg/table). The store records what is known, what is pending and when each
fact was learned; the table drives the fill, close and make-consistent loop over it
until a conjecture can be derived.

# Concept

Learning never blocks on the oracle. Advance reports StatusQueriesPending whenever
answers are missing, and the host decides how to obtain them: call an in-process
oracle, or ship the serialized query tree to a remote worker and feed the returned
acceptance stream back through SubmitAnswers. This Hexagonal Architecture allows the
learner to be embedded in a CLI, an HTTP service or a test harness alike.

# Key Features

  - Two learning modes: deterministic (L* style, table.Equality) and residual
    nondeterministic (NL* style, table.Covering), served by one engine.
  - Bit-exact binary exchange format for pending queries and their answers.
  - Undoable knowledge: every batch of answers is one generation.
  - Snapshots: a session can be persisted and restored on another replica.

# Usage

	o, _ := oracle.New(target) // answers from a known automaton
	l := alf.New(2, alf.WithPolicy(table.Equality{}))

	conj, err := l.Run(ctx, o, o)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(conj.States)

Or step by step, with a remote oracle:

	for {
		status, err := l.Advance(ctx)
		if err != nil {
			return err
		}
		if status == alf.StatusQueriesPending {
			answers := askRemote(l.PendingQueries())
			if err := l.SubmitAnswers(ctx, answers); err != nil {
				return err
			}
			continue
		}
		conj, _ := l.Conjecture(ctx)
		cex := check(conj)
		if cex == nil {
			return nil
		}
		_ = l.AddCounterexample(ctx, *cex)
	}
*/
package alf
