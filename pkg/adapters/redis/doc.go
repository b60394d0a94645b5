// Package redis provides Redis-backed adapters: a template store, a distributed
// lineage locker and an event publisher.
package redis
