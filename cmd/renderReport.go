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
	"fmt"
	"io"
	"os"

	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/util"
	"github.com/spf13/cobra"
)

func renderReport(w io.Writer, r io.Reader) error {
	allErrors, err := model.ReadAllErrors(r)
	if err != nil {
		return fmt.Errorf("error while reading the error document: %w", err)
	}
	if allErrors.Empty() {
		_, err = fmt.Fprintln(w, "No errors.")
		return err
	}
	_, err = io.WriteString(w, util.FmtAllErrors(allErrors))
	return err
}

var renderReportCmd = &cobra.Command{
	Use:   "render-report [file]...",
	Short: "Renders conversion errors",
	Long: `Renders the error documents written by the convert command in a human
readable form. Without file arguments the document is read from stdin.

Example:

  qrdactl render-report out/document.err.json
  cat out/document.err.json | qrdactl render-report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return renderReport(cmd.OutOrStdout(), os.Stdin)
		}
		for _, arg := range args {
			file, err := os.Open(arg)
			if err != nil {
				return err
			}
			err = renderReport(cmd.OutOrStdout(), file)
			file.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderReportCmd)
}
