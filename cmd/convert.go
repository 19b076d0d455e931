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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samply/qrdactl/converter"
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/qpp"
	"github.com/samply/qrdactl/util"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"
)

const (
	outputSuffix     = ".qpp.json"
	errorSuffix      = ".err.json"
	validationSuffix = ".validation.json"
)

// fileSink writes the outcome of the conversion of source into dir, next to
// source if dir is empty. Existing files are never overwritten.
type fileSink struct {
	dir    string
	source string
}

func (s fileSink) Accept(report *converter.Report) error {
	if report.Status.Failed() {
		r, err := report.StreamDetails()
		if err != nil {
			return err
		}
		if err := s.write(errorSuffix, r); err != nil {
			return err
		}
	} else if err := s.write(outputSuffix, bytes.NewReader(report.Output())); err != nil {
		return err
	}

	raw, err := io.ReadAll(report.StreamRawValidationDetails())
	if err != nil || len(raw) == 0 {
		return err
	}
	return s.write(validationSuffix, bytes.NewReader(raw))
}

func (s fileSink) write(suffix string, r io.Reader) error {
	file, err := util.CreateOutputFile(util.OutputPath(s.dir, s.source, suffix))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, r)
	return err
}

type conversionInfo struct {
	status             converter.Status
	bytesIn, bytesOut  int64
	conversionDuration time.Duration
	submissionDuration time.Duration
	failed             *converter.Report
	errorResponse      *util.ErrorResponse
}

// convertFile converts filename, validates the result against the submission
// service if client isn't nil and hands the report to sink.
func convertFile(ctx context.Context, configs *data.MeasureConfigs, client *qpp.Client, sink converter.Sink,
	filename string) (conversionInfo, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return conversionInfo{}, err
	}

	c := converter.New(converter.PathSource(filename),
		converter.WithMeasureConfigs(configs),
		converter.WithLogger(log),
		converter.WithPrettyPrint(pretty))
	out, err := c.Transform()
	report := c.Report()

	var transformErr *converter.TransformError
	if err != nil && !errors.As(err, &transformErr) {
		return conversionInfo{}, err
	}

	result := conversionInfo{
		status:             report.Status,
		bytesIn:            info.Size(),
		bytesOut:           int64(len(out)),
		conversionDuration: report.Duration,
	}
	if report.Status.Failed() {
		result.failed = report
	}

	if client != nil && !report.Status.Failed() {
		start := time.Now()
		err := client.ValidateSubmission(ctx, out)
		result.submissionDuration = time.Since(start)

		var rejected *qpp.RejectedError
		if errors.As(err, &rejected) {
			report.SetRawValidationDetails(rejected.Body)
			result.errorResponse = &util.ErrorResponse{StatusCode: rejected.StatusCode, Body: string(rejected.Body)}
		} else if err != nil {
			result.errorResponse = &util.ErrorResponse{OtherError: err.Error()}
		}
	}

	if err := sink.Accept(report); err != nil {
		return result, err
	}
	return result, nil
}

type conversionResult struct {
	filename       string
	conversionInfo conversionInfo
	err            error
}

func aggregateConversionResults(
	numFiles int,
	conversionResultCh chan conversionResult,
	statsCh chan util.ConversionStats) {

	stats := util.ConversionStats{
		TotalFiles:          numFiles,
		Statuses:            make(map[string]int),
		ConversionDurations: make([]float64, 0, numFiles),
		ErrorResponses:      make(map[string]*util.ErrorResponse),
		Errors:              make(map[string]error),
	}

	for result := range conversionResultCh {
		if result.err != nil {
			stats.Errors[result.filename] = result.err
			continue
		}
		info := result.conversionInfo
		stats.Statuses[string(info.status)]++
		stats.TotalBytesIn += info.bytesIn
		stats.TotalBytesOut += info.bytesOut
		stats.ConversionDurations = append(stats.ConversionDurations, info.conversionDuration.Seconds())
		if info.failed != nil {
			stats.ConversionErrors = append(stats.ConversionErrors, info.failed.Details())
		}
		if info.submissionDuration > 0 {
			stats.SubmissionDurations = append(stats.SubmissionDurations, info.submissionDuration.Seconds())
		}
		if info.errorResponse != nil {
			stats.ErrorResponses[result.filename] = info.errorResponse
		}
	}

	statsCh <- stats
}

// convertFiles converts all files with at most concurrency conversions at a
// time and returns the aggregated statistics.
func convertFiles(ctx context.Context, configs *data.MeasureConfigs, files []string, progressOut io.Writer) util.ConversionStats {
	progress := mpb.NewWithContext(ctx, mpb.WithOutput(progressOut))
	bar := progress.AddBar(int64(len(files)),
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(
			decor.Name("convert", decor.WC{W: 8}),
			decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 60, decor.WC{W: 4}), "done"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	// Aggregate results in one single goroutine
	conversionResultCh := make(chan conversionResult)
	statsCh := make(chan util.ConversionStats)
	go aggregateConversionResults(len(files), conversionResultCh, statsCh)

	// Loop through files and convert
	sem := make(chan bool, concurrency)
	start := time.Now()
	for _, file := range files {
		sem <- true
		go func(filename string) {
			defer func() { <-sem }()
			start := time.Now()
			sink := fileSink{dir: outputDir, source: filename}
			info, err := convertFile(ctx, configs, client, sink, filename)
			if err != nil {
				log.Warn("Error while converting", zap.String("filename", filename), zap.Error(err))
			}
			conversionResultCh <- conversionResult{filename: filename, conversionInfo: info, err: err}
			bar.EwmaIncrement(time.Since(start) / time.Duration(concurrency))
		}(file)
	}

	// Wait for all conversions to finish
	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	close(conversionResultCh)
	progress.Wait()
	if client != nil {
		client.CloseIdleConnections()
	}

	stats := <-statsCh
	stats.Concurrency = concurrency
	stats.TotalDuration = time.Since(start)
	return stats
}

var concurrency int
var outputDir string
var pretty bool

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert [file or directory]...",
	Short: "Convert QRDA-III documents to QPP JSON",
	Long: `You can convert QRDA-III documents given as files or as directories
containing .xml files.

For every document a file with the extension .qpp.json is written on success
and a file with the extension .err.json holding the conversion errors on
failure. Files are written next to the documents unless --output is given.
Existing files are never overwritten.

The conversion will be parallel according to the --concurrency flag. If
--server is given every converted document is validated against the QPP
submission validation service and rejections are stored in files with the
extension .validation.json. A conversion statistic will be printed at the end.

Example:

  qrdactl convert my/documents
  qrdactl convert --pretty -o out document.xml`,
	SilenceUsage: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("requires at least one file or directory argument")
		}
		for _, arg := range args {
			if _, err := os.Stat(arg); os.IsNotExist(err) {
				return fmt.Errorf("`%s` doesn't exist", arg)
			}
		}
		if concurrency < 1 {
			return fmt.Errorf("invalid concurrency %d", concurrency)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := util.XMLFiles(args)
		if err != nil {
			return err
		}
		if outputDir != "" {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("could not create the output directory: %w", err)
			}
		}

		configs, err := measureConfigs()
		if err != nil {
			return err
		}

		if server != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Conversion with validation at %s ...\n", server)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Starting Conversion ...")
		}

		var progressOut io.Writer = os.Stderr
		if noProgress {
			progressOut = io.Discard
		}
		stats := convertFiles(cmd.Context(), configs, files, progressOut)
		fmt.Fprint(cmd.OutOrStdout(), stats.String())

		if failed := stats.Failed(); failed > 0 {
			return fmt.Errorf("%d of %d document(s) could not be converted", failed, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "number of parallel conversions")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write the output files to")
	convertCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the QPP JSON output")
}
