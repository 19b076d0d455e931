// Copyright 2019 - 2025 The Samply Community
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMeasureConfigs(t *testing.T) {
	configs := DefaultMeasureConfigs()

	assert.Equal(t, 5, configs.Len())

	t.Run("Lookup ignores case", func(t *testing.T) {
		config, ok := configs.Lookup("40280381-528A-60FF-0152-C8F7C3B40A3D")
		require.True(t, ok)
		assert.Equal(t, "236", config.MeasureID)
		assert.Equal(t, "CMS165v5", config.ElectronicMeasureID)
		require.Len(t, config.SubPopulations, 1)
	})

	t.Run("Lookup unknown", func(t *testing.T) {
		_, ok := configs.Lookup("00000000-0000-0000-0000-000000000000")
		assert.False(t, ok)
	})

	t.Run("ByMeasureID", func(t *testing.T) {
		config, ok := configs.ByMeasureID("130")
		require.True(t, ok)
		assert.Equal(t, "CMS68v6", config.ElectronicMeasureID)

		_, ok = configs.ByMeasureID("999")
		assert.False(t, ok)
	})

	t.Run("All is ordered by electronic measure id", func(t *testing.T) {
		var ids []string
		for _, c := range configs.All() {
			ids = append(ids, c.ElectronicMeasureID)
		}
		assert.Equal(t, []string{"CMS137v5", "CMS160v5", "CMS165v5", "CMS52v5", "CMS68v6"}, ids)
	})
}

func TestMeasureConfigs_Nil(t *testing.T) {
	var configs *MeasureConfigs

	_, ok := configs.Lookup("40280381-528a-60ff-0152-c8f7c3b40a3d")
	assert.False(t, ok)
	_, ok = configs.ByMeasureID("236")
	assert.False(t, ok)
	assert.Nil(t, configs.All())
	assert.Zero(t, configs.Len())
}

func TestNewMeasureConfigs(t *testing.T) {
	t.Run("duplicate UUID", func(t *testing.T) {
		_, err := NewMeasureConfigs([]MeasureConfig{
			{Title: "a", ElectronicMeasureVerUUID: "abc"},
			{Title: "b", ElectronicMeasureVerUUID: "ABC"},
		})
		assert.EqualError(t, err, "duplicate measure config for ABC")
	})

	t.Run("missing UUID", func(t *testing.T) {
		_, err := NewMeasureConfigs([]MeasureConfig{{Title: "a"}})
		assert.EqualError(t, err, `measure config "a" has no electronic measure version UUID`)
	})
}

func TestReadMeasureConfigs(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		configs, err := ReadMeasureConfigs(strings.NewReader(
			`[{"measureId":"1","electronicMeasureId":"CMS1v1","electronicMeasureVerUuid":"abc"}]`))
		require.NoError(t, err)

		config, ok := configs.Lookup("ABC")
		require.True(t, ok)
		assert.Equal(t, "1", config.MeasureID)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ReadMeasureConfigs(strings.NewReader("- [unbalanced"))
		assert.ErrorContains(t, err, "error while reading measure configs")
	})
}

func TestReadMeasureConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "measures.yml")
	require.NoError(t, os.WriteFile(path, []byte(`- measureId: "1"
  electronicMeasureId: CMS1v1
  electronicMeasureVerUuid: abc
  subPopulations:
    - numeratorUuid: def
`), 0600))

	configs, err := ReadMeasureConfigFile(path)
	require.NoError(t, err)
	config, ok := configs.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "def", config.SubPopulations[0].NumeratorUUID)

	_, err = ReadMeasureConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
