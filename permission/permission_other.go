//go:build !darwin

package permission

var settingsPanes = map[Capability]string{}

func platformProbes() map[Capability]Probe { return nil }

func platformRequests() map[Capability]func() { return nil }
