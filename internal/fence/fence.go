// Package fence provides a compiler-level reordering barrier.
//
// The experiment must keep the per-thread program order `store; load` intact
// in the emitted code while leaving the hardware free to reorder the two
// accesses between cores. A hardware fence (or any atomic operation, which on
// x86 carries full fence semantics) would suppress the store-buffer
// reordering the harness exists to observe, so neither is used here.
package fence

// Compiler is a compiler-only memory barrier: an opaque call the compiler
// cannot move accesses to escaped memory across and cannot keep such values
// cached in registers over. It compiles to a plain call and emits no fence
// instruction, so hardware reordering is unconstrained.
//
//go:noinline
func Compiler() {}
