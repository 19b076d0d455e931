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

package encode

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/decode"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"go.uber.org/zap"
)

// QPP JSON field names.
const (
	ProgramName                  = "programName"
	EntityType                   = "entityType"
	TaxpayerIdentificationNumber = "taxpayerIdentificationNumber"
	NationalProviderIdentifier   = "nationalProviderIdentifier"
	PerformanceYear              = "performanceYear"
	MeasurementSets              = "measurementSets"
	Category                     = "category"
	Measurements                 = "measurements"
	Source                       = "source"
	PerformanceStart             = "performanceStart"
	PerformanceEnd               = "performanceEnd"
	MeasureID                    = "measureId"
	Value                        = "value"
	Numerator                    = "numerator"
	Denominator                  = "denominator"
	IsEndToEndReported           = "isEndToEndReported"
	PerformanceNotMet            = "performanceNotMet"
	Strata                       = "strata"
)

const (
	sourceProvider   = "provider"
	entityIndividual = "individual"
	entityGroup      = "group"
	isoDateLayout    = "2006-01-02"
)

// NewRegistryBuilder returns a builder holding the standard encoders.
func NewRegistryBuilder() *registry.Builder[model.TemplateID, Encoder] {
	return registry.NewBuilder[model.TemplateID, Encoder]().
		MustRegister(model.Placeholder, EncoderFunc(encodeMerged)).
		MustRegister(model.Default, EncoderFunc(encodeMerged)).
		MustRegister(model.ClinicalDocument, EncoderFunc(encodeClinicalDocument)).
		MustRegister(model.AciSection, sectionEncoder(model.AciNumeratorDenominator)).
		MustRegister(model.IaSection, sectionEncoder(model.IaMeasure)).
		MustRegister(model.MeasureSection, sectionEncoder(model.MeasureReferenceResults)).
		MustRegister(model.AciNumeratorDenominator, EncoderFunc(encodeAciNumeratorDenominator)).
		MustRegister(model.AciNumerator, countEncoder(Numerator)).
		MustRegister(model.AciDenominator, countEncoder(Denominator)).
		MustRegister(model.AciAggregateCount, EncoderFunc(encodeAggregateCount)).
		MustRegister(model.IaMeasure, EncoderFunc(encodeIaMeasure)).
		MustRegister(model.MeasurePerformed, EncoderFunc(encodeMeasurePerformed)).
		MustRegister(model.MeasureReferenceResults, EncoderFunc(encodeMeasureReferenceResults)).
		MustRegister(model.MeasureData, EncoderFunc(encodeMeasureData))
}

// NewRegistry returns the standard encoder registry.
func NewRegistry() *Registry {
	return NewRegistryBuilder().Build()
}

// encodeMerged writes all children into out. Other children come first in
// document order, measure data follows in subpopulation rank order.
func encodeMerged(ctx *Context, out *Object, n *model.Node) error {
	var others []*model.Node
	for _, c := range n.Children() {
		if c.Type() != model.MeasureData {
			others = append(others, c)
		}
	}
	for _, c := range append(others, byRank(n.ChildrenOf(model.MeasureData))...) {
		if err := ctx.EncodeChild(out, c); err != nil {
			return err
		}
	}
	return nil
}

func encodeClinicalDocument(ctx *Context, out *Object, n *model.Node) error {
	out.Put(ProgramName, n.Value(decode.ProgramName))
	out.Put(EntityType, entityType(n))
	out.Put(TaxpayerIdentificationNumber, n.Value(decode.TaxpayerIdentificationNumber))
	if n.HasValue(decode.NationalProviderIdentifier) {
		out.Put(NationalProviderIdentifier, n.Value(decode.NationalProviderIdentifier))
	}

	var start, end string
	if act := n.FindFirst(model.ReportingParametersAct); act != nil {
		var err error
		if start, err = isoDate(ctx, act, decode.PerformanceStart); err != nil {
			return err
		}
		if end, err = isoDate(ctx, act, decode.PerformanceEnd); err != nil {
			return err
		}
		if start != "" {
			year, _ := strconv.Atoi(start[:4])
			out.Put(PerformanceYear, year)
		}
	}

	var sets []any
	for _, section := range n.ChildrenOf(model.AciSection, model.IaSection, model.MeasureSection) {
		set := NewObject()
		if err := ctx.EncodeChild(set, section); err != nil {
			return err
		}
		if set.Len() == 0 {
			continue
		}
		set.Put(Source, sourceProvider)
		if start != "" {
			set.Put(PerformanceStart, start)
		}
		if end != "" {
			set.Put(PerformanceEnd, end)
		}
		sets = append(sets, set)
	}
	if len(sets) > 0 {
		out.Put(MeasurementSets, sets)
	}
	return nil
}

func entityType(n *model.Node) string {
	if n.HasValue(decode.EntityType) {
		return n.Value(decode.EntityType)
	}
	if n.HasValue(decode.NationalProviderIdentifier) {
		return entityIndividual
	}
	return entityGroup
}

func isoDate(ctx *Context, n *model.Node, key string) (string, error) {
	if !n.HasValue(key) {
		return "", nil
	}
	t, err := model.ParseDate(n.Value(key))
	if err != nil {
		return "", ctx.Fail(n, err)
	}
	return t.Format(isoDateLayout), nil
}

// sectionEncoder encodes the measures of a section. A section without
// measures writes nothing.
func sectionEncoder(measure model.TemplateID) Encoder {
	return EncoderFunc(func(ctx *Context, out *Object, n *model.Node) error {
		var measurements []any
		for _, c := range n.ChildrenOf(measure) {
			m := NewObject()
			if err := ctx.EncodeChild(m, c); err != nil {
				return err
			}
			measurements = append(measurements, m)
		}
		if len(measurements) == 0 {
			return nil
		}
		out.Put(Category, n.Value(decode.Category))
		out.Put(Measurements, measurements)
		return nil
	})
}

func encodeAciNumeratorDenominator(ctx *Context, out *Object, n *model.Node) error {
	out.Put(MeasureID, n.Value(decode.MeasureID))
	value := NewObject()
	for _, c := range append(n.ChildrenOf(model.AciNumerator), n.ChildrenOf(model.AciDenominator)...) {
		if err := ctx.EncodeChild(value, c); err != nil {
			return err
		}
	}
	out.Put(Value, value)
	return nil
}

// countEncoder writes the aggregate count of n as field.
func countEncoder(field string) Encoder {
	return EncoderFunc(func(ctx *Context, out *Object, n *model.Node) error {
		count, err := aggregateCount(ctx, n)
		if err != nil {
			return err
		}
		out.Put(field, count)
		return nil
	})
}

// aggregateCount encodes the aggregate count child of n and returns its
// value.
func aggregateCount(ctx *Context, n *model.Node) (int, error) {
	counts := n.ChildrenOf(model.AciAggregateCount)
	if len(counts) == 0 {
		return 0, ctx.Failf(n, "missing aggregate count")
	}
	tmp := NewObject()
	if err := ctx.EncodeChild(tmp, counts[0]); err != nil {
		return 0, err
	}
	count, ok := tmp.Int(Value)
	if !ok {
		return 0, ctx.Failf(counts[0], "aggregate count is not an integer")
	}
	return count, nil
}

func encodeAggregateCount(ctx *Context, out *Object, n *model.Node) error {
	raw := strings.TrimSpace(n.Value(decode.AggregateCount))
	count, err := strconv.Atoi(raw)
	if err != nil {
		return ctx.Failf(n, "invalid aggregate count %q", raw)
	}
	out.Put(Value, count)
	return nil
}

func encodeIaMeasure(ctx *Context, out *Object, n *model.Node) error {
	out.Put(MeasureID, n.Value(decode.MeasureID))
	performed := n.ChildrenOf(model.MeasurePerformed)
	if len(performed) == 0 {
		return ctx.Failf(n, "missing measure performed")
	}
	return ctx.EncodeChild(out, performed[0])
}

func encodeMeasurePerformed(_ *Context, out *Object, n *model.Node) error {
	out.Put(Value, strings.EqualFold(strings.TrimSpace(n.Value(decode.MeasurePerformed)), "Y"))
	return nil
}

func encodeMeasureReferenceResults(ctx *Context, out *Object, n *model.Node) error {
	id := n.Value(decode.MeasureID)
	config, known := ctx.MeasureConfigs().Lookup(id)
	if known && config.MeasureID != "" {
		out.Put(MeasureID, config.MeasureID)
	} else {
		ctx.Logger().Debug("Encoding measure without config", zap.String("measureId", id))
		out.Put(MeasureID, id)
	}

	value := NewObject()
	value.Put(IsEndToEndReported, true)
	measureData := n.ChildrenOf(model.MeasureData)
	if known && len(config.SubPopulations) > 1 {
		strata := make([]any, 0, len(config.SubPopulations))
		for _, sub := range config.SubPopulations {
			stratum := NewObject()
			if err := encodePopulations(ctx, stratum, ofSubPopulation(measureData, sub)); err != nil {
				return err
			}
			strata = append(strata, stratum)
		}
		value.Put(Strata, strata)
	} else if err := encodePopulations(ctx, value, measureData); err != nil {
		return err
	}
	out.Put(Value, value)
	return nil
}

// encodePopulations writes the population counts in rank order followed by
// the derived performanceNotMet.
func encodePopulations(ctx *Context, out *Object, measureData []*model.Node) error {
	for _, d := range byRank(measureData) {
		if err := ctx.EncodeChild(out, d); err != nil {
			return err
		}
	}
	eligible, ok := out.Int(model.DENOM.Field())
	if !ok {
		return nil
	}
	met, ok := out.Int(model.NUMER.Field())
	if !ok {
		return nil
	}
	exception, _ := out.Int(model.DENEXCEP.Field())
	exclusion, _ := out.Int(model.DENEX.Field())
	out.Put(PerformanceNotMet, eligible-met-exception-exclusion)
	return nil
}

func ofSubPopulation(measureData []*model.Node, sub data.SubPopulation) []*model.Node {
	uuids := []string{sub.InitialPopulationUUID, sub.DenominatorUUID, sub.NumeratorUUID,
		sub.DenominatorExclusionsUUID, sub.DenominatorExceptionsUUID}
	var matched []*model.Node
	for _, d := range measureData {
		for _, u := range uuids {
			if model.SameUUID(d.Value(decode.MeasureID), u) {
				matched = append(matched, d)
				break
			}
		}
	}
	return matched
}

func encodeMeasureData(ctx *Context, out *Object, n *model.Node) error {
	label, ok := model.ParseSubPopulationLabel(n.Value(decode.MeasureType))
	if !ok {
		return ctx.Failf(n, "unknown measure data type %q", n.Value(decode.MeasureType))
	}
	field := label.Field()
	if field == "" {
		return nil
	}
	count, err := aggregateCount(ctx, n)
	if err != nil {
		return err
	}
	out.Put(field, count)
	return nil
}

// byRank returns the measure data nodes ordered by the rank of their label.
// Nodes of equal rank keep their order.
func byRank(nodes []*model.Node) []*model.Node {
	sorted := make([]*model.Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	return sorted
}

func rank(n *model.Node) int {
	label, _ := model.ParseSubPopulationLabel(n.Value(decode.MeasureType))
	return label.Rank()
}
