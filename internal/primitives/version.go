// Package primitives provides versioning utilities for MachineConfig.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeVersion computes a deterministic version for MachineConfig.
// Priority: user-provided config.Version, else SHA256(config JSON)[:8] in hex.
// Function-valued guards or actions cannot be marshalled; such configs fall
// back to a time-based version.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}

	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Sprintf("unversioned-%s", time.Now().UTC().Format("20060102T150405Z"))
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
