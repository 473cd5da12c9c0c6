// Package report renders contract verification results to the terminal and
// to JSON, mirroring the teacher's output package split between a
// human-facing renderer and a machine-facing one.
package report

import (
	"strings"

	"github.com/pyarch/pyarch/internal/contract"
	"github.com/pyarch/pyarch/internal/pkgmodel"
)

// ContractResult pairs one named contract with the Verification it produced.
type ContractResult struct {
	Name         string
	Verification contract.Verification
}

// Summary aggregates every contract checked in one run.
type Summary struct {
	Results []ContractResult
}

// Violated reports whether any contract in the run was violated.
func (s Summary) Violated() bool {
	for _, r := range s.Results {
		if !r.Verification.Kept() {
			return true
		}
	}
	return false
}

// ViolationCount returns the total number of internal+external violations
// across every contract in the run.
func (s Summary) ViolationCount() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Verification.Internal) + len(r.Verification.External)
	}
	return n
}

func pathString(model *pkgmodel.Model, path []pkgmodel.Token) string {
	parts := make([]string, len(path))
	for i, tok := range path {
		parts[i] = string(model.Item(tok).PyPath)
	}
	return strings.Join(parts, " -> ")
}
