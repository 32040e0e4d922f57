package pipeline

import (
	"gopkg.in/yaml.v3"
)

// Description is a serializable view of a builder's registrations.
type Description struct {
	Entries []EntryDescription `yaml:"entries" json:"entries"`
}

// EntryDescription describes one registration.
type EntryDescription struct {
	Index  int          `yaml:"index" json:"index"`
	Kind   Kind         `yaml:"kind" json:"kind"`
	Name   string       `yaml:"name,omitempty" json:"name,omitempty"`
	Path   *string      `yaml:"path,omitempty" json:"path,omitempty"`
	Stage  string       `yaml:"stage,omitempty" json:"stage,omitempty"`
	Args   int          `yaml:"args,omitempty" json:"args,omitempty"`
	Branch *Description `yaml:"branch,omitempty" json:"branch,omitempty"`
}

// Describe returns the registrations of the builder in order, including
// the registrations of every branch. Stage markers report their effective
// stage; unknown stage names are reported as written.
func (b *Builder) Describe() Description {
	stages, err := b.resolveStages(false)
	if err != nil {
		stages = nil
	}

	d := Description{Entries: make([]EntryDescription, 0, len(b.entries))}

	for i, e := range b.entries {
		ed := EntryDescription{
			Index: i,
			Kind:  e.kind,
			Name:  e.name,
			Args:  len(e.args),
		}

		switch e.kind {
		case KindMap:
			path := e.path
			ed.Path = &path
		case KindStage:
			ed.Stage = e.stage
			if s, ok := stages[i]; ok {
				ed.Stage = s.String()
			}
		}

		if e.branch != nil {
			branch := e.branch.Describe()
			ed.Branch = &branch
		}

		d.Entries = append(d.Entries, ed)
	}

	return d
}

// YAML encodes the description as YAML.
func (d Description) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

func (d Description) String() string {
	data, err := d.YAML()
	if err != nil {
		return "pipeline: " + err.Error()
	}

	return string(data)
}
