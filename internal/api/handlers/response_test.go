// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingedpig/crashintake/internal/api/version"
)

func TestWriteErrorWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorWithDetails(rec, http.StatusNotFound, ErrEvidenceUnavailable, "gone", map[string]interface{}{"path": "/x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrEvidenceUnavailable, resp.Error.Code)
	assert.Equal(t, "/x", resp.Error.Details["path"])
	assert.Nil(t, resp.Data)
}

func TestWriteVersioned(t *testing.T) {
	const old = "2001-01-01"
	version.RegisterTransformer(old, "test.get", func(data any) any {
		return map[string]string{"legacy": data.(map[string]string)["name"]}
	})

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(version.WithContext(req.Context(), old))
	rec := httptest.NewRecorder()
	WriteVersioned(rec, req, "test.get", http.StatusOK, map[string]string{"name": "value"})

	var resp struct {
		Data map[string]string `json:"data"`
		Meta MetaInfo          `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "value", resp.Data["legacy"])
	assert.Equal(t, old, resp.Meta.Version)
}

func TestDecodeJSON(t *testing.T) {
	var v TextRequest

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.True(t, decodeJSON(rec, req, &v, true))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.False(t, decodeJSON(rec, req, &v, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"text":"hi"}`))
	require.True(t, decodeJSON(rec, req, &v, false))
	assert.Equal(t, "hi", v.Text)
}
