package model

import (
	"fmt"
	"io"
	"strings"
)

// Report writes the enumeration result for p as text: the program listing,
// every outcome reachable under sequential consistency, and whether the
// forbidden outcome is among them. The output is deterministic and golden-
// tested; `litmus check` prints it verbatim.
func Report(w io.Writer, p Program, forbidden Outcome) (reachable bool, err error) {
	ins := p.Interleavings()
	outs, err := p.Outcomes()
	if err != nil {
		return false, err
	}

	fmt.Fprintf(w, "litmus: %s\n", p.Name)
	for tid, th := range p.Threads {
		parts := make([]string, len(th))
		for i, op := range th {
			parts[i] = op.String()
		}
		fmt.Fprintf(w, "thread %d: %s\n", tid, strings.Join(parts, "; "))
	}

	fmt.Fprintf(w, "\nsequentially consistent outcomes (%d interleavings):\n", len(ins))
	for _, o := range outs {
		marker := ""
		if o.Equal(forbidden) {
			marker = "   <- forbidden"
			reachable = true
		}
		fmt.Fprintf(w, "  %s%s\n", o, marker)
	}

	verdict := "unreachable"
	if reachable {
		verdict = "REACHABLE"
	}
	fmt.Fprintf(w, "\nforbidden outcome %s: %s\n", forbidden, verdict)
	return reachable, nil
}
