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
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/decode"
	"github.com/samply/qrdactl/model"
	"go.uber.org/zap"
)

func validateQualityMeasureID(ctx *Context, n *model.Node) {
	checker := Thoroughly(n).
		Value(model.MeasureGuidMissing.Problem(), decode.MeasureID).
		ChildMinimum(model.NoChildMeasure.Problem(), 1, model.MeasureData)
	ctx.Add(checker.Details()...)

	if !n.HasValue(decode.MeasureID) {
		return
	}
	config, ok := ctx.MeasureConfigs().Lookup(n.Value(decode.MeasureID))
	if !ok {
		ctx.Logger().Debug("No measure config found", zap.String("measureId", n.Value(decode.MeasureID)))
		return
	}

	measureData := n.ChildrenOf(model.MeasureData)
	for _, sub := range config.SubPopulations {
		requireChild(ctx, n, measureData, model.DENEXCEP, sub.DenominatorExceptionsUUID)
		requireChild(ctx, n, measureData, model.DENEX, sub.DenominatorExclusionsUUID)
	}

	for _, d := range measureData {
		label, ok := model.ParseSubPopulationLabel(d.Value(decode.MeasureType))
		id := d.Value(decode.MeasureID)
		if !ok || id == "" {
			continue
		}
		if !matchesAny(id, declaredUUIDs(config, label)) {
			ctx.AddProblem(model.QualityMeasureIDIncorrectUUID.Format(config.ElectronicMeasureID, string(label), id), d, id)
		}
	}

	rates := n.ChildrenOf(model.PerformanceRateProportionMeasure)
	numerators := declaredUUIDs(config, model.NUMER)
	for _, rate := range rates {
		id := rate.Value(decode.PerformanceRateID)
		if id == "" {
			ctx.AddProblem(model.PerformanceRateMissingUUID.Problem(), rate, "")
			continue
		}
		if !matchesAny(id, numerators) {
			ctx.AddProblem(model.QualityMeasureIDIncorrectUUID.Format(config.ElectronicMeasureID,
				decode.PerformanceRateID, id), rate, id)
		}
	}

	if len(config.SubPopulations) == 1 && len(rates) == 0 {
		ctx.AddProblem(model.QualityMeasureIDMissingSinglePerformanceRate.Problem(), n, "")
	}
}

// requireChild reports a missing measure data child for a population the
// measure declares. An empty uuid means the population is not declared.
func requireChild(ctx *Context, n *model.Node, measureData []*model.Node, label model.SubPopulationLabel, uuid string) {
	if uuid == "" {
		return
	}
	for _, d := range measureData {
		if l, ok := model.ParseSubPopulationLabel(d.Value(decode.MeasureType)); ok && l == label &&
			model.SameUUID(d.Value(decode.MeasureID), uuid) {
			return
		}
	}
	ctx.AddProblem(model.RequiredChildMeasure.Format(label.Description()), n, uuid)
}

func declaredUUIDs(config data.MeasureConfig, label model.SubPopulationLabel) []string {
	var uuids []string
	for _, sub := range config.SubPopulations {
		var id string
		switch label {
		case model.IPOP:
			id = sub.InitialPopulationUUID
		case model.DENOM:
			id = sub.DenominatorUUID
		case model.NUMER:
			id = sub.NumeratorUUID
		case model.DENEX:
			id = sub.DenominatorExclusionsUUID
		case model.DENEXCEP:
			id = sub.DenominatorExceptionsUUID
		}
		if id != "" {
			uuids = append(uuids, id)
		}
	}
	return uuids
}

func matchesAny(id string, uuids []string) bool {
	for _, u := range uuids {
		if model.SameUUID(id, u) {
			return true
		}
	}
	return false
}
