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

package decode

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"go.uber.org/zap"
)

// Node value keys set by the decoders.
const (
	ProgramName                  = "programName"
	EntityType                   = "entityType"
	TaxpayerIdentificationNumber = "taxpayerIdentificationNumber"
	NationalProviderIdentifier   = "nationalProviderIdentifier"
	PerformanceStart             = "performanceStart"
	PerformanceEnd               = "performanceEnd"
	Category                     = "category"
	MeasureID                    = "measureId"
	AggregateCount               = "aggregateCount"
	MeasurePerformed             = "measurePerformed"
	MeasureType                  = "type"
	PerformanceRate              = "rate"
	NullPerformanceRate          = "nullRate"
	PerformanceRateID            = "performanceRateUuid"
	SupplementalCode             = "code"
)

// Identifier roots found in QRDA documents.
const (
	ProgramNameRoot        = "2.16.840.1.113883.3.249.7"
	TinRoot                = "2.16.840.1.113883.4.2"
	NpiRoot                = "2.16.840.1.113883.4.6"
	MeasureReferenceRoot   = "2.16.840.1.113883.4.738"
	individualEntitySuffix = "INDIV"
	groupEntitySuffix      = "GROUP"
)

// Category values.
const (
	CategoryAci     = "aci"
	CategoryIa      = "ia"
	CategoryQuality = "quality"
)

// NewRegistryBuilder returns a builder holding the standard decoders. Every
// template of the vocabulary without a specialized decoder gets the default
// decoder.
func NewRegistryBuilder() *registry.Builder[string, Decoder] {
	b := registry.NewBuilder[string, Decoder]()
	b.MustRegister(model.ClinicalDocument.Root(), DecoderFunc(decodeClinicalDocument))
	b.MustRegister(model.QrdaCategoryIIIReport.Root(), DecoderFunc(decodeNoAction))
	b.MustRegister(model.ReportingParametersAct.Root(), DecoderFunc(decodeReportingParametersAct))
	b.MustRegister(model.AciSection.Root(), sectionDecoder(CategoryAci))
	b.MustRegister(model.IaSection.Root(), sectionDecoder(CategoryIa))
	b.MustRegister(model.MeasureSection.Root(), sectionDecoder(CategoryQuality))
	b.MustRegister(model.AciNumeratorDenominator.Root(), DecoderFunc(decodeMeasureWithExtensionID))
	b.MustRegister(model.IaMeasure.Root(), DecoderFunc(decodeMeasureWithExtensionID))
	b.MustRegister(model.AciNumerator.Root(), DecoderFunc(decodeEntryRelationships))
	b.MustRegister(model.AciDenominator.Root(), DecoderFunc(decodeEntryRelationships))
	b.MustRegister(model.AciAggregateCount.Root(), DecoderFunc(decodeAggregateCount))
	b.MustRegister(model.MeasurePerformed.Root(), DecoderFunc(decodeMeasurePerformed))
	b.MustRegister(model.MeasureReferenceResults.Root(), DecoderFunc(decodeMeasureReferenceResults))
	b.MustRegister(model.MeasureData.Root(), DecoderFunc(decodeMeasureData))
	b.MustRegister(model.PerformanceRateProportionMeasure.Root(), DecoderFunc(decodePerformanceRate))
	b.MustRegister(model.SexSupplementalDataElement.Root(), DecoderFunc(decodeSupplementalData))
	b.MustRegister(model.EthnicitySupplementalDataElement.Root(), DecoderFunc(decodeSupplementalData))
	b.MustRegister(model.RaceSupplementalDataElement.Root(), DecoderFunc(decodeSupplementalData))
	b.MustRegister(model.PayerSupplementalDataElement.Root(), DecoderFunc(decodeSupplementalData))

	for _, tid := range model.TemplateIDs() {
		if root := tid.Root(); root != "" && !b.Has(root) {
			b.MustRegister(root, DecoderFunc(decodeDefault))
		}
	}
	return b
}

// NewRegistry returns the standard decoder registry.
func NewRegistry() *Registry {
	return NewRegistryBuilder().Build()
}

func decodeDefault(_ *Context, _ *etree.Element, _ *model.Node) Result {
	return TreeContinue
}

func decodeNoAction(_ *Context, _ *etree.Element, _ *model.Node) Result {
	return NoAction
}

func decodeClinicalDocument(ctx *Context, el *etree.Element, node *model.Node) Result {
	if program := findAttr(el, ".//informationRecipient/intendedRecipient/id[@root='"+ProgramNameRoot+"']", "extension"); program != "" {
		name, entity, _ := strings.Cut(program, "_")
		node.PutValue(ProgramName, strings.ToLower(name))
		switch strings.ToUpper(entity) {
		case individualEntitySuffix:
			node.PutValue(EntityType, "individual")
		case groupEntitySuffix:
			node.PutValue(EntityType, "group")
		}
	}
	if tin := findAttr(el, ".//representedOrganization/id[@root='"+TinRoot+"']", "extension"); tin != "" {
		node.PutValue(TaxpayerIdentificationNumber, tin)
	}
	if npi := findAttr(el, ".//assignedEntity/id[@root='"+NpiRoot+"']", "extension"); npi != "" {
		node.PutValue(NationalProviderIdentifier, npi)
	}
	ctx.Logger().Debug("Decoded clinical document", zap.String("programName", node.Value(ProgramName)))
	return TreeContinue
}

func decodeReportingParametersAct(_ *Context, el *etree.Element, node *model.Node) Result {
	if start := findAttr(el, "./effectiveTime/low", "value"); start != "" {
		node.PutValue(PerformanceStart, start)
	}
	if end := findAttr(el, "./effectiveTime/high", "value"); end != "" {
		node.PutValue(PerformanceEnd, end)
	}
	return TreeFinished
}

func sectionDecoder(category string) Decoder {
	return DecoderFunc(func(_ *Context, _ *etree.Element, node *model.Node) Result {
		node.PutValue(Category, category)
		return TreeContinue
	})
}

func decodeMeasureWithExtensionID(_ *Context, el *etree.Element, node *model.Node) Result {
	if id := findAttr(el, "./reference/externalDocument/id", "extension"); id != "" {
		node.PutValue(MeasureID, id)
	}
	return TreeContinue
}

func decodeEntryRelationships(ctx *Context, el *etree.Element, node *model.Node) Result {
	for _, er := range el.SelectElements("entryRelationship") {
		ctx.DecodeChildren(er, node)
	}
	return TreeFinished
}

func decodeAggregateCount(_ *Context, el *etree.Element, node *model.Node) Result {
	if value := findAttr(el, "./value", "value"); value != "" {
		node.PutValue(AggregateCount, value)
	}
	return TreeFinished
}

func decodeMeasurePerformed(_ *Context, el *etree.Element, node *model.Node) Result {
	if code := findAttr(el, "./value", "code"); code != "" {
		node.PutValue(MeasurePerformed, code)
	}
	return TreeFinished
}

func decodeMeasureReferenceResults(_ *Context, el *etree.Element, node *model.Node) Result {
	id := findAttr(el, "./reference/externalDocument/id[@root='"+MeasureReferenceRoot+"']", "extension")
	if id == "" {
		id = findAttr(el, "./reference/externalDocument/id", "extension")
	}
	if id != "" {
		node.PutValue(MeasureID, id)
	}
	return TreeContinue
}

func decodeMeasureData(ctx *Context, el *etree.Element, node *model.Node) Result {
	if code := findAttr(el, "./value", "code"); code != "" {
		node.PutValue(MeasureType, code)
	}
	if id := findAttr(el, "./reference/externalObservation/id", "root"); id != "" {
		node.PutValue(MeasureID, id)
	}
	return decodeEntryRelationships(ctx, el, node)
}

func decodePerformanceRate(_ *Context, el *etree.Element, node *model.Node) Result {
	if value := el.SelectElement("value"); value != nil {
		if rate := value.SelectAttrValue("value", ""); rate != "" {
			node.PutValue(PerformanceRate, rate)
		}
		if nullFlavor := value.SelectAttrValue("nullFlavor", ""); nullFlavor != "" {
			node.PutValue(NullPerformanceRate, nullFlavor)
		}
	}
	if id := findAttr(el, "./reference/externalObservation/id", "root"); id != "" {
		node.PutValue(PerformanceRateID, id)
	}
	return TreeFinished
}

func decodeSupplementalData(ctx *Context, el *etree.Element, node *model.Node) Result {
	if code := findAttr(el, "./value", "code"); code != "" {
		node.PutValue(SupplementalCode, code)
	}
	return decodeEntryRelationships(ctx, el, node)
}

func findAttr(el *etree.Element, path, attr string) string {
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.SelectAttrValue(attr, ""))
}
