//go:build tools

// Package gatekeeper pins mockgen so "go generate ./..." works on a fresh checkout.
package gatekeeper

import (
	_ "go.uber.org/mock/mockgen"
)
