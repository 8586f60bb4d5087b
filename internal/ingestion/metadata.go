package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Step records one reader attempt in the extraction chain
type Step struct {
	Name  string `json:"step"`
	Chars int    `json:"chars"`
	Error string `json:"error,omitempty"`
}

// ExtractDebug describes how a document's text was obtained,
// so callers can see which reader ran
type ExtractDebug struct {
	Source string `json:"file"`
	Format string `json:"ext"`
	Hash   string `json:"hash,omitempty"` // SHA256 of the normalized text
	Steps  []Step `json:"steps"`
}

func (d *ExtractDebug) addStep(name string, chars int, err error) {
	step := Step{Name: name, Chars: chars}
	if err != nil {
		step.Error = err.Error()
	}
	d.Steps = append(d.Steps, step)
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals the debug record to pretty-printed JSON
func (d *ExtractDebug) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction debug to JSON: %w", err)
	}
	return jsonBytes, nil
}
