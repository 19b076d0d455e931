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

package validate

import (
	"strings"

	"github.com/samply/qrdactl/decode"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"github.com/shopspring/decimal"
)

// ProgramNames are the program names accepted in clinical documents.
var ProgramNames = []string{"mips", "cpcplus"}

// NewRegistryBuilder returns a builder holding the standard validators.
func NewRegistryBuilder() *registry.Builder[model.TemplateID, Validator] {
	return registry.NewBuilder[model.TemplateID, Validator]().
		MustRegister(model.ClinicalDocument, SingleFunc(validateClinicalDocument)).
		MustRegister(model.ReportingParametersAct, SingleFunc(validateReportingParametersAct)).
		MustRegister(model.AciSection, SingleFunc(validateAciSection)).
		MustRegister(model.AciNumeratorDenominator, aciNumeratorDenominatorValidator{}).
		MustRegister(model.AciNumerator, SingleFunc(validateAciNumerator)).
		MustRegister(model.AciDenominator, SingleFunc(validateAciDenominator)).
		MustRegister(model.AciAggregateCount, SingleFunc(validateAggregateCount)).
		MustRegister(model.IaSection, SingleFunc(validateIaSection)).
		MustRegister(model.IaMeasure, SingleFunc(validateIaMeasure)).
		MustRegister(model.MeasurePerformed, SingleFunc(validateMeasurePerformed)).
		MustRegister(model.MeasureSection, SingleFunc(validateQualitySection)).
		MustRegister(model.MeasureReferenceResults, SingleFunc(validateQualityMeasureID)).
		MustRegister(model.MeasureData, SingleFunc(validateMeasureData)).
		MustRegister(model.PerformanceRateProportionMeasure, SingleFunc(validatePerformanceRate))
}

// NewRegistry returns the standard validator registry.
func NewRegistry() *Registry {
	return NewRegistryBuilder().Build()
}

func validateClinicalDocument(ctx *Context, n *model.Node) {
	program := n.Value(decode.ProgramName)
	ctx.Add(Thoroughly(n).
		Value(model.ClinicalDocumentMissingProgramName.Problem(), decode.ProgramName).
		ValueIn(model.ClinicalDocumentIncorrectProgramName.Format(program, strings.Join(ProgramNames, ", ")),
			decode.ProgramName, ProgramNames...).
		Value(model.ClinicalDocumentMissingTin.Problem(), decode.TaxpayerIdentificationNumber).
		ChildMinimum(model.ClinicalDocumentMissingMeasureSection.Problem(), 1,
			model.AciSection, model.IaSection, model.MeasureSection).
		ChildMaximum(model.ClinicalDocumentDuplicateSection.Format(decode.CategoryAci), 1, model.AciSection).
		ChildMaximum(model.ClinicalDocumentDuplicateSection.Format(decode.CategoryIa), 1, model.IaSection).
		ChildMaximum(model.ClinicalDocumentDuplicateSection.Format(decode.CategoryQuality), 1, model.MeasureSection).
		Details()...)
}

func validateReportingParametersAct(ctx *Context, n *model.Node) {
	checker := Thoroughly(n).
		Value(model.ReportingParametersMissingPerformanceStart.Problem(), decode.PerformanceStart).
		Value(model.ReportingParametersMissingPerformanceEnd.Problem(), decode.PerformanceEnd)
	ctx.Add(checker.Details()...)

	var valid = true
	dates := make(map[string]int64, 2)
	for _, key := range []string{decode.PerformanceStart, decode.PerformanceEnd} {
		if !n.HasValue(key) {
			valid = false
			continue
		}
		d, err := model.ParseDate(n.Value(key))
		if err != nil {
			ctx.AddProblem(model.ReportingParametersInvalidDate.Format(n.Value(key)), n, n.Value(key))
			valid = false
			continue
		}
		dates[key] = d.Unix()
	}
	if valid && dates[decode.PerformanceStart] > dates[decode.PerformanceEnd] {
		ctx.AddProblem(model.ReportingParametersStartAfterEnd.Format(n.Value(decode.PerformanceStart),
			n.Value(decode.PerformanceEnd)), n, "")
	}
}

func validateAciSection(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		ChildMinimum(model.AciSectionMissingMeasures.Problem(), 1, model.AciNumeratorDenominator).
		Details()...)
}

type aciNumeratorDenominatorValidator struct{}

func (aciNumeratorDenominatorValidator) ValidateSingle(ctx *Context, n *model.Node) {
	checker := Thoroughly(n).
		Value(model.AciMeasureMissingID.Problem(), decode.MeasureID)
	if id := n.Value(decode.MeasureID); n.HasValue(decode.MeasureID) {
		checker.
			ChildExact(model.AciMeasureNumeratorCount.Format(id), 1, model.AciNumerator).
			ChildExact(model.AciMeasureDenominatorCount.Format(id), 1, model.AciDenominator)
	}
	ctx.Add(checker.Details()...)
}

// ValidateSameTemplateID reports every ACI measure id reported more than
// once. The first occurrence is not reported.
func (aciNumeratorDenominatorValidator) ValidateSameTemplateID(ctx *Context, nodes []*model.Node) {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		id := strings.TrimSpace(n.Value(decode.MeasureID))
		if id == "" {
			continue
		}
		if seen[id] {
			ctx.AddProblem(model.AciMeasureDuplicateID.Format(id), n, id)
		}
		seen[id] = true
	}
}

func validateAciNumerator(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		ChildExact(model.AciNumeratorAggregateCount.Problem(), 1, model.AciAggregateCount).
		Details()...)
}

func validateAciDenominator(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		ChildExact(model.AciDenominatorAggregateCount.Problem(), 1, model.AciAggregateCount).
		Details()...)
}

func validateAggregateCount(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		Value(model.AggregateCountMissing.Problem(), decode.AggregateCount).
		IntValue(model.AggregateCountInvalid.Format(n.Value(decode.AggregateCount)), decode.AggregateCount).
		Details()...)
}

func validateIaSection(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		ChildMinimum(model.IaSectionMissingMeasures.Problem(), 1, model.IaMeasure).
		Details()...)
}

func validateIaMeasure(ctx *Context, n *model.Node) {
	checker := Check(n).
		Value(model.IaMeasureMissingID.Problem(), decode.MeasureID)
	if n.HasValue(decode.MeasureID) {
		checker.ChildExact(model.IaMeasurePerformedCount.Format(n.Value(decode.MeasureID)), 1, model.MeasurePerformed)
	}
	ctx.Add(checker.Details()...)
}

func validateMeasurePerformed(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		Value(model.MeasurePerformedMissing.Problem(), decode.MeasurePerformed).
		ValueIn(model.MeasurePerformedInvalidValue.Format(n.Value(decode.MeasurePerformed)),
			decode.MeasurePerformed, "Y", "N").
		Details()...)
}

func validateQualitySection(ctx *Context, n *model.Node) {
	ctx.Add(Check(n).
		ChildMinimum(model.QualitySectionMissingMeasures.Problem(), 1, model.MeasureReferenceResults).
		Details()...)
}

func validateMeasureData(ctx *Context, n *model.Node) {
	labels := make([]string, 0, 5)
	for _, l := range model.SubPopulationLabels() {
		labels = append(labels, string(l))
	}
	ctx.Add(Check(n).
		Value(model.MeasureDataMissingType.Problem(), decode.MeasureType).
		ValueIn(model.MeasureDataInvalidType.Format(n.Value(decode.MeasureType)), decode.MeasureType, labels...).
		Details()...)
	ctx.Add(Thoroughly(n).
		Value(model.MeasureDataMissingPopulationID.Problem(), decode.MeasureID).
		ChildExact(model.MeasureDataMissingAggregateCount.Problem(), 1, model.AciAggregateCount).
		Details()...)
}

var (
	minPerformanceRate = decimal.Zero
	maxPerformanceRate = decimal.NewFromInt(1)
)

// nullPerformanceRate is the null flavor of a performance rate that can't be
// calculated.
const nullPerformanceRate = "NA"

func validatePerformanceRate(ctx *Context, n *model.Node) {
	if strings.EqualFold(n.Value(decode.NullPerformanceRate), nullPerformanceRate) {
		return
	}
	rate := n.Value(decode.PerformanceRate)
	ctx.Add(Check(n).
		Value(model.PerformanceRateMissing.Problem(), decode.PerformanceRate).
		InDecimalRange(model.PerformanceRateInvalidValue.Format(rate), decode.PerformanceRate,
			minPerformanceRate, maxPerformanceRate).
		Details()...)
}
