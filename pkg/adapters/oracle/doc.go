// Package oracle provides oracles backed by a known automaton, used to drive and
// test the learner in process, and a loader for automaton definition files.
package oracle
