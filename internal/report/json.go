package report

import (
	"encoding/json"
	"io"

	"github.com/pyarch/pyarch/internal/pkgmodel"
)

// JSONReport is the top-level machine-readable verification output.
type JSONReport struct {
	Violated  bool           `json:"violated"`
	Contracts []JSONContract `json:"contracts"`
}

// JSONContract reports one configured contract's verification outcome.
type JSONContract struct {
	Name     string              `json:"name"`
	Kept     bool                `json:"kept"`
	Internal []JSONInternalFault `json:"internal,omitempty"`
	External []JSONExternalFault `json:"external,omitempty"`
}

// JSONInternalFault describes one forbidden-internal-import violation.
type JSONInternalFault struct {
	From string `json:"from"`
	To   string `json:"to"`
	Path string `json:"path"`
}

// JSONExternalFault describes one forbidden-external-import violation.
type JSONExternalFault struct {
	From   string `json:"from"`
	Target string `json:"target"`
	Path   string `json:"path"`
}

// BuildJSONReport converts a Summary into a JSONReport.
func BuildJSONReport(model *pkgmodel.Model, summary Summary) *JSONReport {
	report := &JSONReport{Violated: summary.Violated()}
	for _, r := range summary.Results {
		jc := JSONContract{Name: r.Name, Kept: r.Verification.Kept()}
		for _, v := range r.Verification.Internal {
			jc.Internal = append(jc.Internal, JSONInternalFault{
				From: string(model.Item(v.Query.From).PyPath),
				To:   string(model.Item(v.Query.To).PyPath),
				Path: pathString(model, v.Path),
			})
		}
		for _, v := range r.Verification.External {
			jc.External = append(jc.External, JSONExternalFault{
				From:   string(model.Item(v.Query.From).PyPath),
				Target: string(v.Target),
				Path:   pathString(model, v.Path),
			})
		}
		report.Contracts = append(report.Contracts, jc)
	}
	return report
}

// WriteJSON encodes a JSONReport to w with two-space indentation.
func WriteJSON(w io.Writer, r *JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
