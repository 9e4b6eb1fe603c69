package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a litmus test definition loaded from YAML.
//
// The file format:
//
//	name: store_buffering
//	description: "Classic SB litmus test"
//	threads:
//	  - - store: X
//	    - load: Y
//	      into: r1
//	  - - store: Y
//	    - load: X
//	      into: r2
//	forbidden:
//	  r1: 0
//	  r2: 0
//
// The forbidden outcome is the one the scenario claims is unreachable under
// sequential consistency; `litmus check` verifies the claim by enumeration.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden files.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Threads lists each thread's ops in program order.
	Threads [][]OpSpec `yaml:"threads"`

	// Forbidden assigns a value to every load register; the outcome claimed
	// unreachable under sequential consistency.
	Forbidden map[string]int `yaml:"forbidden"`
}

// OpSpec is one operation in YAML form: exactly one of store or load set,
// and load requires into.
type OpSpec struct {
	Store string `yaml:"store,omitempty"`
	Load  string `yaml:"load,omitempty"`
	Into  string `yaml:"into,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks structural well-formedness: named, at least two threads,
// every op exactly a store or a load-with-register, unique registers, and a
// forbidden outcome covering exactly the program's registers.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(sc.Threads) < 2 {
		return fmt.Errorf("scenario %q needs at least two threads, has %d", sc.Name, len(sc.Threads))
	}

	regs := make(map[string]bool)
	for tid, th := range sc.Threads {
		if len(th) == 0 {
			return fmt.Errorf("thread %d has no ops", tid)
		}
		for i, op := range th {
			switch {
			case op.Store != "" && op.Load != "":
				return fmt.Errorf("thread %d op %d: both store and load set", tid, i)
			case op.Store != "":
				if op.Into != "" {
					return fmt.Errorf("thread %d op %d: store does not take into", tid, i)
				}
			case op.Load != "":
				if op.Into == "" {
					return fmt.Errorf("thread %d op %d: load needs into", tid, i)
				}
				if regs[op.Into] {
					return fmt.Errorf("thread %d op %d: register %q already used", tid, i, op.Into)
				}
				regs[op.Into] = true
			default:
				return fmt.Errorf("thread %d op %d: neither store nor load", tid, i)
			}
		}
	}

	if len(sc.Forbidden) == 0 {
		return fmt.Errorf("scenario %q has no forbidden outcome", sc.Name)
	}
	for r := range sc.Forbidden {
		if !regs[r] {
			return fmt.Errorf("forbidden outcome names unknown register %q", r)
		}
	}
	for r := range regs {
		if _, ok := sc.Forbidden[r]; !ok {
			return fmt.Errorf("forbidden outcome must assign register %q", r)
		}
	}
	return nil
}

// Compile lowers the scenario into an executable Program.
func (sc *Scenario) Compile() (Program, error) {
	if err := sc.Validate(); err != nil {
		return Program{}, err
	}
	p := Program{Name: sc.Name, Threads: make([][]Op, len(sc.Threads))}
	for tid, th := range sc.Threads {
		ops := make([]Op, len(th))
		for i, spec := range th {
			if spec.Store != "" {
				ops[i] = Op{Kind: Store, Var: spec.Store}
			} else {
				ops[i] = Op{Kind: Load, Var: spec.Load, Reg: spec.Into}
			}
		}
		p.Threads[tid] = ops
	}
	return p, nil
}

// ForbiddenOutcome returns the forbidden outcome as an Outcome value.
func (sc *Scenario) ForbiddenOutcome() Outcome {
	out := Outcome{}
	for r, v := range sc.Forbidden {
		out[r] = v
	}
	return out
}
