// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEndpointRemapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "remap.yaml")
		content := `data_nodes:
  esgf-node.ornl.gov: dea29ae8-bb92-4e63-bdbc-260522c92fe8
endpoints:
  415a6320-e49c-11e5-9798-22000b9da45e: 1889ea03-25ad-4f9f-8110-1ce8833a9d7e
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		remapping, err := loadEndpointRemapping(path)
		require.NoError(t, err)
		assert.Equal(t, "dea29ae8-bb92-4e63-bdbc-260522c92fe8", remapping.DataNodes["esgf-node.ornl.gov"])
		assert.Equal(t, "1889ea03-25ad-4f9f-8110-1ce8833a9d7e",
			remapping.Apply("esgf-data1.llnl.gov", "415a6320-e49c-11e5-9798-22000b9da45e"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadEndpointRemapping(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("data_nodes: [unterminated"), 0o600))

		_, err := loadEndpointRemapping(path)
		assert.Error(t, err)
	})
}
