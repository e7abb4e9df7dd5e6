// Package types provides shared type definitions for the application.
package types

// DictationStatus is a snapshot of the dictation pipeline.
type DictationStatus struct {
	State     string `json:"state"` // "idle", "recording", "transcribing"
	Enabled   bool   `json:"enabled"`
	Available bool   `json:"available"` // Engine can transcribe
	Engine    string `json:"engine"`
	Model     string `json:"model,omitempty"`
	Chord     string `json:"chord"`
}

// CapabilityStatus is the state of one OS permission.
type CapabilityStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "granted", "denied", "not-determined", "unsupported"
	Allowed bool   `json:"allowed"`
}

// EngineInfo describes a registered transcription engine.
type EngineInfo struct {
	Name          string `json:"name"`
	Model         string `json:"model,omitempty"`
	IsLocal       bool   `json:"isLocal"`
	IsReady       bool   `json:"isReady"`
	SetupProgress int    `json:"setupProgress"` // 0-100, -1 if not started
}

// SetupProgress reports model download progress.
type SetupProgress struct {
	Engine   string `json:"engine"`
	Progress int    `json:"progress"`
}

// SetupError reports a failed model download.
type SetupError struct {
	Engine string `json:"engine"`
	Error  string `json:"error"`
}
