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
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed measures.yml
var defaultMeasures []byte

// SubPopulation holds the population UUIDs of one stratum of a quality
// measure. Empty UUIDs are not declared by the measure.
type SubPopulation struct {
	InitialPopulationUUID     string `yaml:"initialPopulationUuid" json:"initialPopulationUuid"`
	DenominatorUUID           string `yaml:"denominatorUuid" json:"denominatorUuid"`
	NumeratorUUID             string `yaml:"numeratorUuid" json:"numeratorUuid"`
	DenominatorExclusionsUUID string `yaml:"denominatorExclusionsUuid" json:"denominatorExclusionsUuid"`
	DenominatorExceptionsUUID string `yaml:"denominatorExceptionsUuid" json:"denominatorExceptionsUuid"`
}

type MeasureConfig struct {
	Title                    string          `yaml:"title" json:"title"`
	Category                 string          `yaml:"category" json:"category"`
	MetricType               string          `yaml:"metricType" json:"metricType"`
	MeasureID                string          `yaml:"measureId" json:"measureId"`
	ElectronicMeasureID      string          `yaml:"electronicMeasureId" json:"electronicMeasureId"`
	ElectronicMeasureVerUUID string          `yaml:"electronicMeasureVerUuid" json:"electronicMeasureVerUuid"`
	SubPopulations           []SubPopulation `yaml:"subPopulations" json:"subPopulations"`
}

// MeasureConfigs is a read-only lookup table of measure configurations.
type MeasureConfigs struct {
	configs     []MeasureConfig
	byVerUUID   map[string]int
	byMeasureID map[string]int
}

// NewMeasureConfigs indexes configs by electronic measure version UUID and by
// measure id. Duplicate UUIDs are an error.
func NewMeasureConfigs(configs []MeasureConfig) (*MeasureConfigs, error) {
	mc := &MeasureConfigs{
		configs:     make([]MeasureConfig, len(configs)),
		byVerUUID:   make(map[string]int, len(configs)),
		byMeasureID: make(map[string]int, len(configs)),
	}
	copy(mc.configs, configs)
	for i, c := range mc.configs {
		if c.ElectronicMeasureVerUUID == "" {
			return nil, fmt.Errorf("measure config %q has no electronic measure version UUID", c.Title)
		}
		key := strings.ToLower(c.ElectronicMeasureVerUUID)
		if _, ok := mc.byVerUUID[key]; ok {
			return nil, fmt.Errorf("duplicate measure config for %s", c.ElectronicMeasureVerUUID)
		}
		mc.byVerUUID[key] = i
		if c.MeasureID != "" {
			mc.byMeasureID[c.MeasureID] = i
		}
	}
	return mc, nil
}

// Lookup returns the configuration of the measure with the given electronic
// measure version UUID. Case is ignored.
func (mc *MeasureConfigs) Lookup(verUUID string) (MeasureConfig, bool) {
	if mc == nil {
		return MeasureConfig{}, false
	}
	i, ok := mc.byVerUUID[strings.ToLower(strings.TrimSpace(verUUID))]
	if !ok {
		return MeasureConfig{}, false
	}
	return mc.configs[i], true
}

// ByMeasureID returns the configuration with the given QPP measure id.
func (mc *MeasureConfigs) ByMeasureID(measureID string) (MeasureConfig, bool) {
	if mc == nil {
		return MeasureConfig{}, false
	}
	i, ok := mc.byMeasureID[measureID]
	if !ok {
		return MeasureConfig{}, false
	}
	return mc.configs[i], true
}

// All returns all configurations ordered by electronic measure id.
func (mc *MeasureConfigs) All() []MeasureConfig {
	if mc == nil {
		return nil
	}
	configs := make([]MeasureConfig, len(mc.configs))
	copy(configs, mc.configs)
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].ElectronicMeasureID < configs[j].ElectronicMeasureID
	})
	return configs
}

func (mc *MeasureConfigs) Len() int {
	if mc == nil {
		return 0
	}
	return len(mc.configs)
}

// ReadMeasureConfigs reads a list of measure configurations. JSON input is
// accepted as well since it is valid YAML.
func ReadMeasureConfigs(r io.Reader) (*MeasureConfigs, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var configs []MeasureConfig
	if err := yaml.Unmarshal(body, &configs); err != nil {
		return nil, fmt.Errorf("error while reading measure configs: %w", err)
	}
	return NewMeasureConfigs(configs)
}

// ReadMeasureConfigFile reads measure configurations from the file at path.
func ReadMeasureConfigFile(path string) (*MeasureConfigs, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	configs, err := ReadMeasureConfigs(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return configs, nil
}

// DefaultMeasureConfigs returns the measure configurations shipped with the
// binary.
func DefaultMeasureConfigs() *MeasureConfigs {
	configs, err := ReadMeasureConfigs(bytes.NewReader(defaultMeasures))
	if err != nil {
		panic(err)
	}
	return configs
}
