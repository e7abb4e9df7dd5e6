// Package app wires the dictation pipeline into the Wails tray application.
package app

// Event names for frontend communication.
const (
	EventDictationState = "dictation-state"
	EventSetupProgress  = "stt-setup-progress"
	EventSetupError     = "stt-setup-error"
	EventSetupComplete  = "stt-setup-complete"
	EventPermissions    = "permissions"
)
