// Package artifacts persists compiled contract artifacts and deployment
// records in a local JSON store, with bundle export for moving artifact
// sets between machines.
package artifacts

import (
	"encoding/json"
	"time"
)

// StoreVersion is the current on-disk format version.
const StoreVersion = 1

// Artifact is one compiled contract: its ABI and deployable bytecode
// plus the compiler settings that produced it.
type Artifact struct {
	Name            string          `json:"name"`
	SourcePath      string          `json:"sourcePath,omitempty"`
	ABI             json.RawMessage `json:"abi"`
	Bytecode        string          `json:"bytecode"`
	CompilerVersion string          `json:"compilerVersion"`
	OptimizerRuns   int             `json:"optimizerRuns"`
	CompiledAt      time.Time       `json:"compiledAt"`
}

// DeploymentRecord is one completed deployment of an artifact to a
// network. IDs are ULIDs, so lexicographic order is creation order.
type DeploymentRecord struct {
	ID          string    `json:"id"`
	Network     string    `json:"network"`
	Contract    string    `json:"contract"`
	Address     string    `json:"address"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	DeployedAt  time.Time `json:"deployedAt"`
}

// storeData is the on-disk shape of the store file.
type storeData struct {
	Version     int                          `json:"version"`
	Artifacts   map[string]*Artifact         `json:"artifacts"`
	Deployments map[string]*DeploymentRecord `json:"deployments"`
}

func newStoreData() *storeData {
	return &storeData{
		Version:     StoreVersion,
		Artifacts:   make(map[string]*Artifact),
		Deployments: make(map[string]*DeploymentRecord),
	}
}

// copyArtifact creates a deep copy of an Artifact.
func copyArtifact(a *Artifact) *Artifact {
	if a == nil {
		return nil
	}
	cp := *a
	if a.ABI != nil {
		cp.ABI = make(json.RawMessage, len(a.ABI))
		copy(cp.ABI, a.ABI)
	}
	return &cp
}

// copyRecord creates a copy of a DeploymentRecord.
func copyRecord(r *DeploymentRecord) *DeploymentRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
