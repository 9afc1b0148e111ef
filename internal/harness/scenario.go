package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/yggdrasil/internal/collect"
	"github.com/roach88/yggdrasil/internal/rdf"
)

// Scenario is one distribution test: source data, a sequence of steps and
// assertions on the published view.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile is the catalog profile under test.
	Profile string `yaml:"profile"`

	// Source is N-Triples loaded into the source graph before any step.
	Source string `yaml:"source,omitempty"`

	// SourceFiles are N-Triples files loaded after Source. Relative paths
	// are resolved against the scenario file.
	SourceFiles []string `yaml:"source_files,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`

	// Token is the scratch graph token. Defaults to "scenario".
	Token string `yaml:"token,omitempty"`
}

// Step is one action. Exactly one of its fields is set.
type Step struct {
	Run     *RunStep     `yaml:"run,omitempty"`
	Insert  string       `yaml:"insert,omitempty"`
	Delete  string       `yaml:"delete,omitempty"`
	Resolve *ResolveStep `yaml:"resolve,omitempty"`

	// Expect checks the outcome of a run step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// RunStep publishes the view for a scope.
type RunStep struct {
	Agendas []string `yaml:"agendas,omitempty"`
	All     bool     `yaml:"all,omitempty"`
	Initial bool     `yaml:"initial,omitempty"`
}

// ResolveStep resolves changed subjects to agendas.
type ResolveStep struct {
	Subjects []string `yaml:"subjects"`
	Expect   []string `yaml:"expect"`
}

// ExpectClause is the expected outcome of a run. A nil clause expects a
// successful run.
type ExpectClause struct {
	// Error is a substring of the expected run error. Empty expects success.
	Error string `yaml:"error,omitempty"`

	EndedEarly *bool `yaml:"ended_early,omitempty"`
	Orphans    *int  `yaml:"orphans,omitempty"`
	Stale      *int  `yaml:"stale,omitempty"`
}

// Assertion validates the final store.
type Assertion struct {
	Type string `yaml:"type"`

	// Triples is an N-Triples document (target_contains, target_lacks).
	Triples string `yaml:"triples,omitempty"`

	// Resource and Agenda are used by published and absent.
	Resource string `yaml:"resource,omitempty"`
	Agenda   string `yaml:"agenda,omitempty"`

	// Count is used by triple_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTargetContains = "target_contains"
	AssertTargetLacks    = "target_lacks"
	AssertPublished      = "published"
	AssertAbsent         = "absent"
	AssertTripleCount    = "triple_count"
	AssertNoScratch      = "no_scratch"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and relative source files are resolved against the scenario's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.SourceFiles {
		if !filepath.IsAbs(p) {
			scenario.SourceFiles[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, ok := collect.Chain(s.Profile); !ok {
		return fmt.Errorf("unknown profile %q (known: %s)", s.Profile, strings.Join(collect.Names(), ", "))
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if err := checkTriples("source", s.Source); err != nil {
		return err
	}
	for _, p := range s.SourceFiles {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("source file not found: %s", p)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	set := 0
	if step.Run != nil {
		set++
		if !step.Run.All && len(step.Run.Agendas) == 0 {
			return fmt.Errorf("steps[%d]: run needs agendas or all", i)
		}
	}
	if step.Insert != "" {
		set++
		if err := checkTriples(fmt.Sprintf("steps[%d].insert", i), step.Insert); err != nil {
			return err
		}
	}
	if step.Delete != "" {
		set++
		if err := checkTriples(fmt.Sprintf("steps[%d].delete", i), step.Delete); err != nil {
			return err
		}
	}
	if step.Resolve != nil {
		set++
		if len(step.Resolve.Subjects) == 0 {
			return fmt.Errorf("steps[%d]: resolve needs subjects", i)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of run, insert, delete or resolve is required", i)
	}
	if step.Expect != nil && step.Run == nil {
		return fmt.Errorf("steps[%d]: expect only applies to run", i)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTargetContains, AssertTargetLacks:
		if strings.TrimSpace(a.Triples) == "" {
			return fmt.Errorf("assertions[%d]: triples is required for %s", index, a.Type)
		}
		return checkTriples(fmt.Sprintf("assertions[%d]", index), a.Triples)
	case AssertPublished:
		if a.Resource == "" || a.Agenda == "" {
			return fmt.Errorf("assertions[%d]: resource and agenda are required for published", index)
		}
	case AssertAbsent:
		if a.Resource == "" {
			return fmt.Errorf("assertions[%d]: resource is required for absent", index)
		}
	case AssertTripleCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for triple_count", index)
		}
	case AssertNoScratch:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func checkTriples(field, doc string) error {
	if _, err := rdf.ParseNTriples(strings.NewReader(doc)); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
