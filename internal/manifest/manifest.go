// Package manifest loads the mintforge.yaml project manifest: the
// contract sources to compile and the ordered deployments per network.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the manifest file the CLI looks for.
const DefaultPath = "mintforge.yaml"

// DefaultStorePath is where compiled artifacts and deployment records
// land unless the manifest says otherwise.
const DefaultStorePath = ".mintforge/artifacts.json"

// Sentinel errors
var (
	ErrNotFound = errors.New("manifest: file not found")
	ErrInvalid  = errors.New("manifest: invalid manifest")
)

// Manifest is the parsed mintforge.yaml.
type Manifest struct {
	Project   string         `yaml:"project" validate:"required"`
	Store     string         `yaml:"store"`
	Contracts []ContractSpec `yaml:"contracts" validate:"required,min=1,dive"`

	// Deployments maps a network name to the ordered list of contracts
	// to deploy there.
	Deployments map[string][]DeploymentSpec `yaml:"deployments" validate:"dive,dive"`
}

// ContractSpec names one contract and its Solidity source file.
type ContractSpec struct {
	Name   string `yaml:"name" validate:"required"`
	Source string `yaml:"source" validate:"required"`
}

// DeploymentSpec is one deployment step: which contract, with which
// constructor arguments.
type DeploymentSpec struct {
	Contract string   `yaml:"contract" validate:"required"`
	Args     []string `yaml:"args"`
}

var validate = validator.New()

// Load reads, expands, defaults, and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	// Environment references ($VAR / ${VAR}) expand before parsing so
	// paths can point at per-user locations.
	expanded := os.ExpandEnv(string(data))

	var m Manifest
	if err := yaml.Unmarshal([]byte(expanded), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// applyDefaults fills unset fields.
func (m *Manifest) applyDefaults() {
	if m.Store == "" {
		m.Store = DefaultStorePath
	}
}

// Validate checks the manifest shape and its internal references.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	declared := make(map[string]bool, len(m.Contracts))
	for _, c := range m.Contracts {
		if declared[c.Name] {
			return fmt.Errorf("%w: contract %q declared twice", ErrInvalid, c.Name)
		}
		declared[c.Name] = true
	}

	for network, steps := range m.Deployments {
		if network == "" {
			return fmt.Errorf("%w: empty network name in deployments", ErrInvalid)
		}
		for _, step := range steps {
			if !declared[step.Contract] {
				return fmt.Errorf("%w: deployment on %s references undeclared contract %q", ErrInvalid, network, step.Contract)
			}
		}
	}
	return nil
}

// Contract returns the spec for a declared contract.
func (m *Manifest) Contract(name string) (ContractSpec, error) {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c, nil
		}
	}
	return ContractSpec{}, fmt.Errorf("%w: contract %q not declared", ErrInvalid, name)
}

// Plan returns the ordered deployment steps for a network.
func (m *Manifest) Plan(network string) ([]DeploymentSpec, error) {
	steps, ok := m.Deployments[network]
	if !ok {
		return nil, fmt.Errorf("%w: no deployments configured for network %q", ErrInvalid, network)
	}
	return steps, nil
}
