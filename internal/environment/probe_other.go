// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !windows

package environment

import "context"

// Module enumeration is not supported here; nothing is reported as loaded.
func loadedModules(ctx context.Context) ([]string, error) {
	return nil, ctx.Err()
}

func platformVersion() string {
	return ""
}
