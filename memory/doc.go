// Package memory provides MemoryStore implementations: a process-local
// in-memory store for tests and demos, and a durable sqlite-backed store for
// single-node deployments. Retrieval is keyword based; swap in a semantic
// index behind core.MemoryStore for production-grade recall.
package memory
