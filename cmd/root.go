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
	"net/url"
	"os"

	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/qpp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var server string
var disableTlsSecurity bool
var caCert string
var basicAuthUser string
var basicAuthPassword string
var bearerToken string
var noProgress bool
var measuresFile string
var verbose bool

var client *qpp.Client
var log = zap.NewNop()

func createClient() error {
	validationUrl, err := url.ParseRequestURI(server)
	if err != nil {
		return fmt.Errorf("could not parse the validation service URL: %v", err)
	}

	if disableTlsSecurity {
		client = qpp.NewClientInsecure(*validationUrl, clientAuth())
	} else if caCert != "" {
		client, err = qpp.NewClientCa(*validationUrl, clientAuth(), caCert)
		if err != nil {
			return err
		}
	} else {
		client = qpp.NewClient(*validationUrl, clientAuth())
	}
	return nil
}

func clientAuth() qpp.Auth {
	if basicAuthUser != "" && basicAuthPassword != "" {
		return qpp.BasicAuth{User: basicAuthUser, Password: basicAuthPassword}
	} else if bearerToken != "" {
		return qpp.TokenAuth{Token: bearerToken}
	} else {
		return nil
	}
}

func createLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return config.Build()
}

// measureConfigs returns the measure configuration given by --measures or the
// bundled one.
func measureConfigs() (*data.MeasureConfigs, error) {
	if measuresFile == "" {
		return data.DefaultMeasureConfigs(), nil
	}
	return data.ReadMeasureConfigFile(measuresFile)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qrdactl",
	Short: "Convert QRDA-III Documents to QPP JSON from the Command Line",
	Long: `qrdactl is a command line tool converting QRDA Category III documents
into QPP submission JSON.

Currently you can convert and validate documents, render conversion errors
and list the known quality measures.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := createLogger()
		if err != nil {
			return err
		}
		log = logger
		if server != "" {
			return createClient()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&measuresFile, "measures", "", "path to a YAML file with the measure configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every conversion step")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "the URL of the QPP submission validation endpoint")
	rootCmd.PersistentFlags().BoolVarP(&disableTlsSecurity, "insecure", "k", false, "allow insecure server connections when using SSL")
	rootCmd.PersistentFlags().StringVar(&caCert, "certificate-authority", "", "path to a cert file for the certificate authority")
	rootCmd.PersistentFlags().StringVar(&basicAuthUser, "user", "", "user information for basic authentication")
	rootCmd.PersistentFlags().StringVar(&basicAuthPassword, "password", "", "password information for basic authentication")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVarP(&noProgress, "no-progress", "", false, "don't show progress bar")
}
