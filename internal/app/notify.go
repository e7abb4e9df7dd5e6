package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"

	"go.aimuz.me/voxkey/internal/types"
	"go.aimuz.me/voxkey/permission"
)

const notifyTitle = "voxkey"

// notify shows a desktop notification.
var notify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// capabilityReport returns the status of every capability in display order.
func capabilityReport(checker permission.Checker) []types.CapabilityStatus {
	out := make([]types.CapabilityStatus, 0, len(permission.Capabilities))
	for _, c := range permission.Capabilities {
		st := checker.Status(c)
		out = append(out, types.CapabilityStatus{
			Name:    c.String(),
			Status:  st.String(),
			Allowed: st.Allowed(),
		})
	}
	return out
}

// requestIfUndetermined shows the system prompt for c when the user has not
// answered it yet, then reports whether c is allowed.
func requestIfUndetermined(checker permission.Checker, c permission.Capability) bool {
	st := checker.Status(c)
	if st == permission.NotDetermined {
		slog.Info("requesting permission", "capability", c)
		checker.Request(c)
		st = checker.Status(c)
	}
	return st.Allowed()
}

// requestMissing prompts for c unless it is allowed. Accessibility never
// reports NotDetermined, so it is prompted whenever it is missing.
func requestMissing(checker permission.Checker, c permission.Capability) {
	if checker.Status(c).Allowed() {
		return
	}
	slog.Info("requesting permission", "capability", c)
	checker.Request(c)
}

// missingMessage describes capabilities that block dictation, or returns ""
// when nothing is missing.
func missingMessage(report []types.CapabilityStatus) string {
	var missing []string
	for _, c := range report {
		if !c.Allowed {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("Dictation needs permission for: %s. Grant it in System Settings, then restart voxkey.",
		strings.Join(missing, ", "))
}

func notifyMissing(report []types.CapabilityStatus) {
	msg := missingMessage(report)
	if msg == "" {
		return
	}
	slog.Warn("capabilities missing", "message", msg)
	if err := notify(notifyTitle, msg); err != nil {
		slog.Warn("show notification", "error", err)
	}
}

func notifyError(msg string, err error) {
	if err := notify(notifyTitle, fmt.Sprintf("%s: %v", msg, err)); err != nil {
		slog.Warn("show notification", "error", err)
	}
}
