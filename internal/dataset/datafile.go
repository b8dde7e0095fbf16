// Package dataset describes the benchmark datafiles, their quasi-identifiers
// and the ';'-delimited tables they are stored in.
package dataset

import (
	"strings"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Datafile identifies one of the benchmark datasets.
type Datafile int

const (
	Adult Datafile = iota
	Cup
	Fars
	Atus
	Ihis
	ACS13
)

type datafileInfo struct {
	name    string
	display string
	stem    string
	qis     []string
}

var datafiles = map[Datafile]datafileInfo{
	Adult: {
		name:    "ADULT",
		display: "Adult",
		stem:    "adult",
		qis: []string{"age", "education", "marital-status", "native-country", "race",
			"salary-class", "sex", "workclass", "occupation"},
	},
	Cup: {
		name:    "CUP",
		display: "Cup",
		stem:    "cup",
		qis:     []string{"AGE", "GENDER", "INCOME", "MINRAMNT", "NGIFTALL", "STATE", "ZIP", "RAMNTALL"},
	},
	Fars: {
		name:    "FARS",
		display: "Fars",
		stem:    "fars",
		qis:     []string{"iage", "ideathday", "ideathmon", "ihispanic", "iinjury", "irace", "isex", "istatenum"},
	},
	Atus: {
		name:    "ATUS",
		display: "Atus",
		stem:    "atus",
		qis: []string{"Age", "Birthplace", "Citizenship status", "Labor force status", "Marital status",
			"Race", "Region", "Sex", "Highest level of school completed"},
	},
	Ihis: {
		name:    "IHIS",
		display: "Ihis",
		stem:    "ihis",
		qis:     []string{"AGE", "MARSTAT", "PERNUM", "QUARTER", "RACEA", "REGION", "SEX", "YEAR", "EDUC"},
	},
	ACS13: {
		name:    "ACS13",
		display: "ACS13",
		stem:    "ss13acs",
		qis:     semanticQINames(),
	},
}

// All returns every datafile in declaration order.
func All() []Datafile {
	return []Datafile{Adult, Cup, Fars, Atus, Ihis, ACS13}
}

// ParseDatafile resolves an enum name ("ADULT") or display name ("Adult"),
// case-insensitively.
func ParseDatafile(name string) (Datafile, error) {
	for _, d := range All() {
		info := datafiles[d]
		if strings.EqualFold(name, info.name) || strings.EqualFold(name, info.display) {
			return d, nil
		}
	}
	return 0, bencherr.Config("dataset.ParseDatafile", name, "unknown datafile")
}

func (d Datafile) info() datafileInfo {
	info, ok := datafiles[d]
	if !ok {
		return datafileInfo{name: "INVALID", display: "Invalid"}
	}
	return info
}

// Valid reports whether d is a known datafile.
func (d Datafile) Valid() bool {
	_, ok := datafiles[d]
	return ok
}

// String returns the display name written to result files.
func (d Datafile) String() string {
	return d.info().display
}

// Name returns the enum-style identifier.
func (d Datafile) Name() string {
	return d.info().name
}

// Stem is the base filename used for data and hierarchy files.
func (d Datafile) Stem() string {
	return d.info().stem
}

// QIs returns a copy of the ordered quasi-identifier list.
func (d Datafile) QIs() []string {
	return append([]string(nil), d.info().qis...)
}

// MarshalText implements encoding.TextMarshaler.
func (d Datafile) MarshalText() ([]byte, error) {
	return []byte(d.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Datafile) UnmarshalText(text []byte) error {
	parsed, err := ParseDatafile(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
