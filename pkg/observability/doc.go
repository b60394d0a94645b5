/*
Package observability provides tools for monitoring the form engine.

It includes Prometheus metrics for evaluations, validations, mutations and store
operations, and an event publisher that writes lifecycle events to a structured logger.
*/
package observability
