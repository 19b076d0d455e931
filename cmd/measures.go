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
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/samply/qrdactl/data"
	"github.com/spf13/cobra"
)

var measuresFormat string

func writeMeasures(w io.Writer, configs []data.MeasureConfig, format string) error {
	switch format {
	case "table":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "MEASURE ID\teCQM\tSTRATA\tTITLE")
		for _, c := range configs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.MeasureID, c.ElectronicMeasureID, len(c.SubPopulations), c.Title)
		}
		return tw.Flush()
	case "yaml":
		b, err := yaml.Marshal(configs)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "json":
		b, err := json.MarshalIndent(configs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	default:
		return fmt.Errorf("unknown format `%s`", format)
	}
}

var measuresCmd = &cobra.Command{
	Use:   "measures [eCQM or measure id]...",
	Short: "List the known quality measures",
	Long: `Lists the quality measures of the measure configuration given by
--measures or of the bundled one.

Measures can be selected by electronic measure id (e.g. CMS165v5) or by QPP
measure id (e.g. 236).

Example:

  qrdactl measures
  qrdactl measures --format yaml CMS165v5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := measureConfigs()
		if err != nil {
			return err
		}
		selected := configs.All()
		if len(args) > 0 {
			selected = selectMeasures(configs, args)
			if len(selected) == 0 {
				return fmt.Errorf("no measure found for %s", strings.Join(args, ", "))
			}
		}
		return writeMeasures(cmd.OutOrStdout(), selected, measuresFormat)
	},
}

func selectMeasures(configs *data.MeasureConfigs, ids []string) []data.MeasureConfig {
	var selected []data.MeasureConfig
	for _, c := range configs.All() {
		for _, id := range ids {
			if strings.EqualFold(id, c.ElectronicMeasureID) {
				selected = append(selected, c)
				break
			}
			if byID, ok := configs.ByMeasureID(id); ok && byID.ElectronicMeasureVerUUID == c.ElectronicMeasureVerUUID {
				selected = append(selected, c)
				break
			}
		}
	}
	return selected
}

func init() {
	rootCmd.AddCommand(measuresCmd)

	measuresCmd.Flags().StringVarP(&measuresFormat, "format", "f", "table", "output format: table, yaml or json")
}
