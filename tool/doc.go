// Package tool implements the capability registry that lets the reasoning
// loop invoke structured tools with schema validated, type coerced arguments,
// consistent error handling and an append-only execution history.
//
// Registration is expected to complete before steady-state operation; call
// Registry.Freeze once startup wiring is done, after which the registry is
// read-only and safe for unsynchronized concurrent reads.
package tool
