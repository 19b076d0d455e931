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

package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/samply/qrdactl/converter"
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/qpp"
	"github.com/samply/qrdactl/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testdata = "../testdata/"

func withOutputDir(t *testing.T) string {
	dir := t.TempDir()
	outputDir, concurrency, pretty, client = dir, 2, false, nil
	t.Cleanup(func() {
		outputDir, concurrency, pretty, client = "", 2, false, nil
	})
	return dir
}

func readFile(t *testing.T, path string) []byte {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestConvertFiles(t *testing.T) {
	dir := withOutputDir(t)
	files := []string{
		testdata + "valid-qrda-iii.xml",
		testdata + "invalid-performance-rate-uuid.xml",
		testdata + "malformed.xml",
	}

	stats := convertFiles(context.Background(), data.DefaultMeasureConfigs(), files, io.Discard)

	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 2, stats.Concurrency)
	assert.Equal(t, 2, stats.Failed())
	assert.Empty(t, stats.Errors)
	assert.Equal(t, map[string]int{
		string(converter.Encoded):          1,
		string(converter.ValidationFailed): 1,
		string(converter.InternalFailure):  1,
	}, stats.Statuses)
	assert.Len(t, stats.ConversionDurations, 3)
	assert.Positive(t, stats.TotalBytesOut)

	t.Run("output of the valid document", func(t *testing.T) {
		b := readFile(t, filepath.Join(dir, "valid-qrda-iii.qpp.json"))
		assert.Equal(t, "mips", gjson.GetBytes(b, "programName").String())
		assert.NoFileExists(t, filepath.Join(dir, "valid-qrda-iii.err.json"))
	})

	t.Run("errors of the invalid document", func(t *testing.T) {
		b := readFile(t, filepath.Join(dir, "invalid-performance-rate-uuid.err.json"))
		assert.Equal(t, "invalid-performance-rate-uuid.xml", gjson.GetBytes(b, "errors.0.sourceIdentifier").String())
		assert.Equal(t, int64(2), gjson.GetBytes(b, "errors.0.details.#").Int())
		assert.NoFileExists(t, filepath.Join(dir, "invalid-performance-rate-uuid.qpp.json"))
	})

	t.Run("errors of the malformed document", func(t *testing.T) {
		b := readFile(t, filepath.Join(dir, "malformed.err.json"))
		assert.Equal(t, "InternalError", gjson.GetBytes(b, "errors.0.type").String())
	})

	t.Run("existing files are kept", func(t *testing.T) {
		again := convertFiles(context.Background(), data.DefaultMeasureConfigs(), files, io.Discard)

		require.Len(t, again.Errors, 3)
		for _, err := range again.Errors {
			assert.ErrorIs(t, err, util.ErrOutputExists)
		}
	})
}

func TestConvertFiles_PrettyPrint(t *testing.T) {
	dir := withOutputDir(t)
	pretty = true

	stats := convertFiles(context.Background(), data.DefaultMeasureConfigs(), []string{testdata + "valid-qrda-iii.xml"}, io.Discard)

	require.Zero(t, stats.Failed())
	b := readFile(t, filepath.Join(dir, "valid-qrda-iii.qpp.json"))
	assert.Contains(t, string(b), "\n  \"programName\": \"mips\"")
}

func TestConvertFiles_Submission(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		rejection  string
		validation bool
	}{
		{"accepted", http.StatusOK, "", false},
		{"rejected", http.StatusUnprocessableEntity, `{"error":{"type":"ValidationError"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received []byte
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				received, _ = io.ReadAll(r.Body)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.rejection))
			}))
			defer server.Close()

			dir := withOutputDir(t)
			baseURL, err := url.ParseRequestURI(server.URL)
			require.NoError(t, err)
			client = qpp.NewClient(*baseURL, nil)

			stats := convertFiles(context.Background(), data.DefaultMeasureConfigs(), []string{testdata + "valid-qrda-iii.xml"}, io.Discard)

			assert.Equal(t, readFile(t, filepath.Join(dir, "valid-qrda-iii.qpp.json")), received)
			assert.Len(t, stats.SubmissionDurations, 1)
			validationFile := filepath.Join(dir, "valid-qrda-iii.validation.json")
			if tt.validation {
				require.Contains(t, stats.ErrorResponses, testdata+"valid-qrda-iii.xml")
				assert.Equal(t, tt.status, stats.ErrorResponses[testdata+"valid-qrda-iii.xml"].StatusCode)
				assert.Equal(t, tt.rejection, string(readFile(t, validationFile)))
			} else {
				assert.Empty(t, stats.ErrorResponses)
				assert.NoFileExists(t, validationFile)
			}
		})
	}
}

func TestConvertCmd_Args(t *testing.T) {
	concurrency = 2

	assert.Error(t, convertCmd.Args(convertCmd, nil))
	assert.Error(t, convertCmd.Args(convertCmd, []string{testdata + "missing.xml"}))
	assert.NoError(t, convertCmd.Args(convertCmd, []string{testdata}))
}
