//go:build !windows

package main

// ANSI terminals need no setup.
func enableVT() {}
