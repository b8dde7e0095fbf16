package dataset

import "github.com/dbsmedya/riskbench/internal/bencherr"

// HierarchyType tells how the hierarchy of an ACS13 attribute is produced.
type HierarchyType int

const (
	// Interval hierarchies are built from a template and the column's distinct values.
	Interval HierarchyType = iota
	// Order hierarchies are loaded verbatim.
	Order
)

func (t HierarchyType) String() string {
	switch t {
	case Interval:
		return "INTERVAL"
	case Order:
		return "ORDER"
	default:
		return "UNKNOWN"
	}
}

// letter is the discriminator used in hierarchy filenames.
func (t HierarchyType) letter() string {
	switch t {
	case Interval:
		return "i"
	case Order:
		return "o"
	default:
		return "x"
	}
}

// SemanticQI is one of the fixed ACS13 quasi-identifiers.
type SemanticQI struct {
	Name string
	Type HierarchyType
}

// FileBaseName returns the hierarchy file stem suffix, e.g. "i_AGEP".
func (q SemanticQI) FileBaseName() string {
	return q.Type.letter() + "_" + q.Name
}

// acs13QIs is ordered; QI-count truncation takes a prefix of it.
var acs13QIs = []SemanticQI{
	{"AGEP", Interval},
	{"CIT", Order},
	{"COW", Order},
	{"DDRS", Order},
	{"DEAR", Order},
	{"DEYE", Order},
	{"DOUT", Order},
	{"DPHY", Order},
	{"DREM", Order},
	{"FER", Order},
	{"GCL", Order},
	{"HINS1", Order},
	{"HINS2", Order},
	{"HINS3", Order},
	{"HINS4", Order},
	{"HINS5", Order},
	{"HINS6", Order},
	{"HINS7", Order},
	{"INTP", Interval},
	{"MAR", Order},
	{"MARHD", Order},
	{"MARHM", Order},
	{"MARHW", Order},
	{"MIG", Order},
	{"MIL", Order},
	{"PWGTP", Interval},
	{"RELP", Order},
	{"SCHG", Order},
	{"SCHL", Order},
	{"SEX", Order},
}

// SemanticQIs returns the ACS13 quasi-identifiers in declaration order.
func SemanticQIs() []SemanticQI {
	return append([]SemanticQI(nil), acs13QIs...)
}

// LookupSemanticQI finds the ACS13 attribute by exact name.
func LookupSemanticQI(name string) (SemanticQI, error) {
	for _, q := range acs13QIs {
		if q.Name == name {
			return q, nil
		}
	}
	return SemanticQI{}, bencherr.Config("dataset.LookupSemanticQI", name, "no such ACS13 semantic QI")
}

func semanticQINames() []string {
	names := make([]string, len(acs13QIs))
	for i, q := range acs13QIs {
		names[i] = q.Name
	}
	return names
}
