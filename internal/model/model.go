package model

import (
	"fmt"
	"sort"
	"strings"
)

// OpKind distinguishes the two memory operations a litmus thread can take.
type OpKind int

const (
	// Store writes 1 to a variable.
	Store OpKind = iota
	// Load reads a variable into a register.
	Load
)

// Op is one memory operation in a thread's program.
type Op struct {
	Kind OpKind
	Var  string // variable name, e.g. "X"
	Reg  string // destination register for loads, e.g. "r1"
}

// String renders the op in assignment form: "X = 1" or "r1 = Y".
func (o Op) String() string {
	if o.Kind == Store {
		return o.Var + " = 1"
	}
	return o.Reg + " = " + o.Var
}

// Program is a multi-threaded litmus program. All variables start at 0;
// stores write 1.
type Program struct {
	Name    string
	Threads [][]Op
}

// StoreBuffering is the canonical two-thread program the hardware harness
// runs:
//
//	thread 0: X = 1; r1 = Y
//	thread 1: Y = 1; r2 = X
func StoreBuffering() Program {
	return Program{
		Name: "store_buffering",
		Threads: [][]Op{
			{{Kind: Store, Var: "X"}, {Kind: Load, Var: "Y", Reg: "r1"}},
			{{Kind: Store, Var: "Y"}, {Kind: Load, Var: "X", Reg: "r2"}},
		},
	}
}

// Step addresses one op: Threads[Thread][Index].
type Step struct {
	Thread int
	Index  int
}

// Interleaving is a total order over all of a program's ops.
type Interleaving []Step

// Render spells out the interleaving as the op sequence it executes. Steps
// that do not address an op of p render as a placeholder; Execute is where
// malformed interleavings are rejected.
func (in Interleaving) Render(p Program) string {
	parts := make([]string, len(in))
	for i, st := range in {
		if st.Thread < 0 || st.Thread >= len(p.Threads) ||
			st.Index < 0 || st.Index >= len(p.Threads[st.Thread]) {
			parts[i] = fmt.Sprintf("<no op %d.%d>", st.Thread, st.Index)
			continue
		}
		parts[i] = p.Threads[st.Thread][st.Index].String()
	}
	return strings.Join(parts, "; ")
}

// Outcome maps each load register to the value it observed.
type Outcome map[string]int

// String renders registers in sorted order, e.g. "r1=0 r2=1". The rendering
// is canonical, so it doubles as a set key.
func (o Outcome) String() string {
	regs := make([]string, 0, len(o))
	for r := range o {
		regs = append(regs, r)
	}
	sort.Strings(regs)
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = fmt.Sprintf("%s=%d", r, o[r])
	}
	return strings.Join(parts, " ")
}

// Equal reports whether both outcomes assign the same values to the same
// registers.
func (o Outcome) Equal(other Outcome) bool {
	if len(o) != len(other) {
		return false
	}
	for r, v := range o {
		ov, ok := other[r]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Registers returns the program's load destinations in sorted order.
func (p Program) Registers() []string {
	var regs []string
	for _, th := range p.Threads {
		for _, op := range th {
			if op.Kind == Load {
				regs = append(regs, op.Reg)
			}
		}
	}
	sort.Strings(regs)
	return regs
}

// Interleavings enumerates every total order of the program's ops that
// preserves each thread's own program order. For two threads of two ops each
// this yields the six legal sequentially consistent schedules.
func (p Program) Interleavings() []Interleaving {
	var all []Interleaving
	pcs := make([]int, len(p.Threads))
	var rec func(prefix Interleaving)
	rec = func(prefix Interleaving) {
		done := true
		for tid := range p.Threads {
			if pcs[tid] < len(p.Threads[tid]) {
				done = false
				step := Step{Thread: tid, Index: pcs[tid]}
				pcs[tid]++
				rec(append(prefix, step))
				pcs[tid]--
			}
		}
		if done {
			all = append(all, append(Interleaving(nil), prefix...))
		}
	}
	rec(nil)
	return all
}

// Execute runs the program's ops in the given order on sequentially
// consistent memory and returns the registers. The order must contain each
// op exactly once and respect per-thread program order; anything else is an
// error. Execution is deterministic: the same order always yields the same
// outcome.
func (p Program) Execute(order Interleaving) (Outcome, error) {
	total := 0
	for _, th := range p.Threads {
		total += len(th)
	}
	if len(order) != total {
		return nil, fmt.Errorf("interleaving has %d steps, program has %d ops", len(order), total)
	}

	mem := make(map[string]int)
	out := Outcome{}
	for _, r := range p.Registers() {
		out[r] = 0
	}

	pcs := make([]int, len(p.Threads))
	for i, st := range order {
		if st.Thread < 0 || st.Thread >= len(p.Threads) {
			return nil, fmt.Errorf("step %d: no thread %d", i, st.Thread)
		}
		if st.Index < 0 || st.Index >= len(p.Threads[st.Thread]) {
			return nil, fmt.Errorf("step %d: thread %d has no op %d", i, st.Thread, st.Index)
		}
		if st.Index != pcs[st.Thread] {
			return nil, fmt.Errorf("step %d: thread %d op %d breaks program order (expected op %d)",
				i, st.Thread, st.Index, pcs[st.Thread])
		}
		pcs[st.Thread]++

		op := p.Threads[st.Thread][st.Index]
		switch op.Kind {
		case Store:
			mem[op.Var] = 1
		case Load:
			out[op.Reg] = mem[op.Var]
		}
	}
	return out, nil
}

// Outcomes executes every legal interleaving and returns the distinct
// reachable outcomes, sorted by their canonical rendering.
func (p Program) Outcomes() ([]Outcome, error) {
	seen := make(map[string]Outcome)
	for _, in := range p.Interleavings() {
		out, err := p.Execute(in)
		if err != nil {
			return nil, err
		}
		seen[out.String()] = out
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	outs := make([]Outcome, len(keys))
	for i, k := range keys {
		outs[i] = seen[k]
	}
	return outs, nil
}

// Reachable reports whether any sequentially consistent interleaving
// produces the given outcome.
func (p Program) Reachable(target Outcome) (bool, error) {
	outs, err := p.Outcomes()
	if err != nil {
		return false, err
	}
	for _, o := range outs {
		if o.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}
