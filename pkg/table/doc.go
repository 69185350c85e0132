/*
Package table implements the observation table engine used to learn finite
automata from membership answers and counterexamples.

A Table keeps a prefix-closed set of confirmed rows (state candidates), their
one-symbol successors (the frontier) and a list of distinguishing suffix columns.
Step and Complete drive the fill, close and make-consistent loop. Missing answers
never block: they are queued in the backing knowledge.Tree and the pass reports
Incomplete, leaving the caller to obtain them however it likes.

The covers predicate is a Policy. Equality yields deterministic conjectures in the
style of Angluin's L*; Covering yields residual nondeterministic automata in the
style of NL*. Both are served by the same engine.
*/
package table
