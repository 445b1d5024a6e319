package importer

import "github.com/kosarica/pricelist-import/internal/types"

// accumulator collects the output of a single run
type accumulator struct {
	items       []types.ParsedPriceListItem
	diagnostics []types.RowDiagnostic
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

func (a *accumulator) add(d types.RowDiagnostic) {
	a.diagnostics = append(a.diagnostics, d)
}

// finish copies the collected output into res and derives the flattened
// message lists and the success flag
func (a *accumulator) finish(res *types.ImportResult) {
	res.Items = a.items
	if res.Items == nil {
		res.Items = []types.ParsedPriceListItem{}
	}
	res.Diagnostics = a.diagnostics
	if res.Diagnostics == nil {
		res.Diagnostics = []types.RowDiagnostic{}
	}
	res.Errors, res.Warnings = flatten(res.Diagnostics)
	res.Success = len(res.Errors) == 0
	res.Fingerprint = Fingerprint(res.Items)
}

func flatten(diags []types.RowDiagnostic) (errs, warnings []string) {
	errs = []string{}
	warnings = []string{}
	for _, d := range diags {
		if d.Severity == types.SeverityError {
			errs = append(errs, d.String())
		} else {
			warnings = append(warnings, d.String())
		}
	}
	return errs, warnings
}
