// Package core provides the foundational domain types and interfaces used by
// Lotus. It defines the core abstractions for:
//
//   - Thoughts (one reasoning snapshot produced per loop iteration)
//   - Actions and Results (planned steps and their execution outcomes)
//   - Inbound and outbound events carried over the pub/sub transport
//   - Pluggable capability interfaces for text completion, long-term memory
//     and event publishing
//
// The package intentionally keeps implementation concerns (persistence,
// transports, concrete model providers, the orchestration loop) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core
