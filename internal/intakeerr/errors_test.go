// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package intakeerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := New(KindAssemblyFailed, "attach.Assemble", "write archive", fs.ErrPermission)
	assert.Equal(t, "attach.Assemble: write archive: permission denied", err.Error())

	bare := &Error{Kind: KindCorpusUnavailable}
	assert.Equal(t, "corpus_unavailable", bare.Error())
}

func TestError_IsByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KindAssemblyFailed, "op", "msg", nil))

	assert.True(t, errors.Is(err, ErrAssemblyFailed))
	assert.False(t, errors.Is(err, ErrCorpusUnavailable))
	assert.Equal(t, KindAssemblyFailed, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestError_Unwrap(t *testing.T) {
	err := New(KindEvidenceUnavailable, "evidence.Scan", "read dir", fs.ErrNotExist)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
