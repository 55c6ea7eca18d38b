package problem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Document is a model file: variables, constraints over them, an
// optional objective and search settings.
type Document struct {
	// Name of the model.
	Name string `yaml:"name"`

	Variables   []Variable   `yaml:"variables"`
	Constraints []Constraint `yaml:"constraints"`

	// Objective turns satisfaction into optimization.
	Objective *Objective `yaml:"objective,omitempty"`

	Search *Search `yaml:"search,omitempty"`

	// dir resolves the tuple files named by tables.
	dir string
}

// Variable declares one integer variable, or an array of them when
// Size is set. The domain is either an interval or a list of values.
type Variable struct {
	Name string `yaml:"name"`

	// Size makes an array of variables named name[0] to name[size-1].
	Size int `yaml:"size,omitempty"`

	// Domain is the interval [lb, ub].
	Domain []int `yaml:"domain,omitempty"`

	// Values lists the domain explicitly.
	Values []int `yaml:"values,omitempty"`

	// Bounded keeps the domain as an interval.
	Bounded bool `yaml:"bounded,omitempty"`
}

// Constraint declares one constraint. Type selects the fields read:
//   - table: vars, tuples or file, feasible, algorithm
//   - arithm: vars (one or two), op, const
//   - alldifferent: vars, level
//   - scalar: vars, coeffs, op, result
//   - sum: vars, op, result
type Constraint struct {
	Type string `yaml:"type"`

	// Vars names variables or whole arrays.
	Vars []string `yaml:"vars"`

	Tuples [][]int `yaml:"tuples,omitempty"`

	// File names a tuple file, relative to the document.
	File string `yaml:"file,omitempty"`

	// Feasible is the polarity of the tuples. Defaults to true.
	Feasible *bool `yaml:"feasible,omitempty"`

	Algorithm string `yaml:"algorithm,omitempty"`

	Op string `yaml:"op,omitempty"`

	Const *int `yaml:"const,omitempty"`

	Level string `yaml:"level,omitempty"`

	Coeffs []int `yaml:"coeffs,omitempty"`

	Result string `yaml:"result,omitempty"`
}

// Objective names the variable to minimize or maximize.
type Objective struct {
	Direction string `yaml:"direction"`
	Var       string `yaml:"var"`
}

// Search configures branching.
type Search struct {
	// Variables is "input" or "first-fail".
	Variables string `yaml:"variables,omitempty"`

	// Values is "min", "max", "mid", "random" or "split".
	Values string `yaml:"values,omitempty"`

	// Seed feeds the random value selector.
	Seed int64 `yaml:"seed,omitempty"`

	// Decision restricts branching to these variables.
	Decision []string `yaml:"decision,omitempty"`
}

// Load reads and parses a model file. Unknown fields are rejected.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.dir = filepath.Dir(path)
	return doc, nil
}

// Decode parses a model document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, &fd.MalformedInputError{What: "model document", Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if len(d.Variables) == 0 {
		return fd.Malformed("model %q declares no variable", d.Name)
	}
	seen := map[string]bool{}
	for _, v := range d.Variables {
		if v.Name == "" {
			return fd.Malformed("variable without a name")
		}
		if seen[v.Name] {
			return fd.Malformed("variable %q declared twice", v.Name)
		}
		seen[v.Name] = true
		if v.Size < 0 {
			return fd.Malformed("variable %q has a negative size", v.Name)
		}
		switch {
		case len(v.Domain) == 2 && len(v.Values) == 0:
			if v.Domain[0] > v.Domain[1] {
				return fd.Malformed("variable %q has the empty domain %v", v.Name, v.Domain)
			}
		case len(v.Domain) == 0 && len(v.Values) > 0:
			if v.Bounded {
				return fd.Malformed("variable %q lists values but is bounded", v.Name)
			}
		default:
			return fd.Malformed("variable %q needs either a [lb, ub] domain or values", v.Name)
		}
	}
	for i, c := range d.Constraints {
		if len(c.Vars) == 0 {
			return fd.Malformed("constraint %d (%s) has no variable", i, c.Type)
		}
	}
	if d.Objective != nil && d.Objective.Direction != "minimize" && d.Objective.Direction != "maximize" {
		return fd.Malformed("objective direction %q", d.Objective.Direction)
	}
	return nil
}
