// Package sfc verifies candidate licenses against the SFC public register.
// A browser automation layer drives the register's search-by-name flow and
// emits a marker transcript; ParseTranscript turns that transcript into the
// structured outcome the conversation flow stores.
package sfc

import "time"

// Status is one license's verification state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusNotActive Status = "Not Active"
	StatusUnknown   Status = "Unknown"
)

// ManualVerificationURL is offered to the operator whenever automation
// cannot produce a definitive answer.
const ManualVerificationURL = "https://apps.sfc.hk/publicregWeb/searchByName"

// Outcome is the structured result of one license check.
type Outcome struct {
	Success               bool
	CandidateName         string
	SFO                   Status
	AMLO                  Status
	RawOutput             string
	Err                   string
	ManualVerificationURL string
}

// Config parameterizes the browser automation.
type Config struct {
	Headless   bool          `yaml:"headless"`
	BrowserBin string        `yaml:"browser_bin"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DefaultConfig allows one minute per check, matching the register's worst
// observed grid-load latency.
func DefaultConfig() Config {
	return Config{
		Headless: true,
		Timeout:  60 * time.Second,
	}
}
