//go:build !darwin

package stt

func preferredLanguages() []string { return nil }
