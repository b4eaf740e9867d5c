// Package idhash derives deterministic identifiers for simulation output.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeTrialID computes a deterministic trial_id using SHA256.
// Formula: SHA256(run_id|policy_id|trial_index|flight_id), flight_id empty when nil.
// Returns hex-encoded hash (64 characters).
func ComputeTrialID(runID, policyID string, trialIndex int, flightID *int64) string {
	flight := ""
	if flightID != nil {
		flight = strconv.FormatInt(*flightID, 10)
	}

	data := fmt.Sprintf("%s|%s|%d|%s", runID, policyID, trialIndex, flight)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
