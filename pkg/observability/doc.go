/*
Package observability provides tools for monitoring learning sessions.

It turns learner lifecycle events into Prometheus metrics and structured log
records, and combines several sets of hooks into one.
*/
package observability
