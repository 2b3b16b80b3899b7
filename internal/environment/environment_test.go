// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const msxmlPattern = `msxml[56]\.dll`

func TestStatic_ModuleLoaded(t *testing.T) {
	ctx := context.Background()

	loaded, err := Static{Modules: []string{"kernel32.dll", "MSXML6.DLL"}}.ModuleLoaded(ctx, msxmlPattern)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = Static{Modules: []string{"msxml3.dll"}}.ModuleLoaded(ctx, msxmlPattern)
	require.NoError(t, err)
	assert.False(t, loaded)

	loaded, err = Static{}.ModuleLoaded(ctx, msxmlPattern)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestModuleLoaded_BadPattern(t *testing.T) {
	_, err := Static{}.ModuleLoaded(context.Background(), "msxml[")
	assert.Error(t, err)
}

func TestHostProbe_UsesLister(t *testing.T) {
	p := &HostProbe{list: func(context.Context) ([]string, error) {
		return []string{"libc.so.6", "msxml5.dll"}, nil
	}}
	loaded, err := p.ModuleLoaded(context.Background(), msxmlPattern)
	require.NoError(t, err)
	assert.True(t, loaded)

	failing := &HostProbe{list: func(context.Context) ([]string, error) {
		return nil, errors.New("no access")
	}}
	_, err = failing.ModuleLoaded(context.Background(), msxmlPattern)
	assert.Error(t, err)
}

func TestHostProbe_Real(t *testing.T) {
	loaded, err := NewProbe().ModuleLoaded(context.Background(), msxmlPattern)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestParseMaps(t *testing.T) {
	maps := []byte(`55d0c0a00000-55d0c0a02000 r--p 00000000 08:01 1234 /usr/bin/crashintake
7f1e2c000000-7f1e2c021000 rw-p 00000000 00:00 0
7f1e2c400000-7f1e2c428000 r--p 00000000 08:01 5678 /usr/lib/x86_64-linux-gnu/libc.so.6
7f1e2c428000-7f1e2c5bd000 r-xp 00028000 08:01 5678 /usr/lib/x86_64-linux-gnu/libc.so.6
7f1e2c600000-7f1e2c601000 r--p 00000000 08:01 9999 /opt/My Libs/msxml6.dll (deleted)
7ffd4b9f0000-7ffd4ba11000 rw-p 00000000 00:00 0 [stack]
`)
	assert.Equal(t, []string{"crashintake", "libc.so.6", "msxml6.dll"}, parseMaps(maps))
}

func TestCollect(t *testing.T) {
	info := Collect("1.2.3")
	assert.Equal(t, runtime.GOOS, info.Platform)
	assert.Equal(t, runtime.GOARCH, info.Architecture)
	assert.Equal(t, "1.2.3", info.AppVersion)
	assert.NotEmpty(t, info.Process)
}
