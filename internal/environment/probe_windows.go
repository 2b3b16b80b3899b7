// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package environment

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func loadedModules(ctx context.Context) ([]string, error) {
	proc := windows.CurrentProcess()
	handleSize := uint32(unsafe.Sizeof(windows.Handle(0)))

	mods := make([]windows.Handle, 256)
	for {
		var needed uint32
		size := uint32(len(mods)) * handleSize
		if err := windows.EnumProcessModules(proc, &mods[0], size, &needed); err != nil {
			return nil, fmt.Errorf("enum process modules: %w", err)
		}
		if needed <= size {
			mods = mods[:needed/handleSize]
			break
		}
		mods = make([]windows.Handle, needed/handleSize)
	}

	names := make([]string, 0, len(mods))
	buf := make([]uint16, windows.MAX_PATH)
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := windows.GetModuleBaseName(proc, m, &buf[0], uint32(len(buf))); err != nil {
			continue
		}
		names = append(names, windows.UTF16ToString(buf))
	}
	return names, nil
}

func platformVersion() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
