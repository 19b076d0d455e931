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

package model

// TemplateID identifies a recognized QRDA section or entry template.
// The declaration order defines the total order used for deterministic
// iteration.
type TemplateID int

const (
	Placeholder TemplateID = iota
	Default
	ClinicalDocument
	QrdaCategoryIIIReport
	ReportingParametersSection
	ReportingParametersAct
	AciSection
	AciNumeratorDenominator
	AciNumerator
	AciDenominator
	AciAggregateCount
	IaSection
	IaMeasure
	MeasurePerformed
	MeasureSection
	MeasureReferenceResults
	MeasureData
	PerformanceRateProportionMeasure
	SexSupplementalDataElement
	EthnicitySupplementalDataElement
	RaceSupplementalDataElement
	PayerSupplementalDataElement
)

type templateInfo struct {
	name      string
	root      string
	extension string
}

var templates = [...]templateInfo{
	Placeholder:                      {name: "PLACEHOLDER"},
	Default:                          {name: "DEFAULT"},
	ClinicalDocument:                 {"CLINICAL_DOCUMENT", "2.16.840.1.113883.10.20.27.1.2", "2017-07-01"},
	QrdaCategoryIIIReport:            {"QRDA_CATEGORY_III_REPORT", "2.16.840.1.113883.10.20.27.1.1", "2016-09-01"},
	ReportingParametersSection:       {"REPORTING_PARAMETERS_SECTION", "2.16.840.1.113883.10.20.17.2.1", ""},
	ReportingParametersAct:           {"REPORTING_PARAMETERS_ACT", "2.16.840.1.113883.10.20.17.3.8", ""},
	AciSection:                       {"ACI_SECTION", "2.16.840.1.113883.10.20.27.2.5", "2017-06-01"},
	AciNumeratorDenominator:          {"ACI_NUMERATOR_DENOMINATOR", "2.16.840.1.113883.10.20.27.3.28", "2017-06-01"},
	AciNumerator:                     {"ACI_NUMERATOR", "2.16.840.1.113883.10.20.27.3.31", "2016-09-01"},
	AciDenominator:                   {"ACI_DENOMINATOR", "2.16.840.1.113883.10.20.27.3.32", "2016-09-01"},
	AciAggregateCount:                {"ACI_AGGREGATE_COUNT", "2.16.840.1.113883.10.20.27.3.3", ""},
	IaSection:                        {"IA_SECTION", "2.16.840.1.113883.10.20.27.2.4", "2017-06-01"},
	IaMeasure:                        {"IA_MEASURE", "2.16.840.1.113883.10.20.27.3.33", "2017-06-01"},
	MeasurePerformed:                 {"MEASURE_PERFORMED", "2.16.840.1.113883.10.20.27.3.27", "2016-09-01"},
	MeasureSection:                   {"MEASURE_SECTION", "2.16.840.1.113883.10.20.27.2.3", "2017-06-01"},
	MeasureReferenceResults:          {"MEASURE_REFERENCE_RESULTS", "2.16.840.1.113883.10.20.27.3.17", "2016-11-01"},
	MeasureData:                      {"MEASURE_DATA", "2.16.840.1.113883.10.20.27.3.16", "2016-11-01"},
	PerformanceRateProportionMeasure: {"PERFORMANCE_RATE_PROPORTION_MEASURE", "2.16.840.1.113883.10.20.27.3.30", "2016-09-01"},
	SexSupplementalDataElement:       {"SEX_SUPPLEMENTAL_DATA_ELEMENT", "2.16.840.1.113883.10.20.27.3.6", "2016-09-01"},
	EthnicitySupplementalDataElement: {"ETHNICITY_SUPPLEMENTAL_DATA_ELEMENT", "2.16.840.1.113883.10.20.27.3.7", "2016-09-01"},
	RaceSupplementalDataElement:      {"RACE_SUPPLEMENTAL_DATA_ELEMENT", "2.16.840.1.113883.10.20.27.3.8", "2016-09-01"},
	PayerSupplementalDataElement:     {"PAYER_SUPPLEMENTAL_DATA_ELEMENT", "2.16.840.1.113883.10.20.27.3.9", "2016-02-01"},
}

var byRoot = func() map[string]TemplateID {
	m := make(map[string]TemplateID, len(templates))
	for i, t := range templates {
		if t.root != "" {
			m[t.root] = TemplateID(i)
		}
	}
	return m
}()

// String returns the constant name of the template, e.g. CLINICAL_DOCUMENT.
func (t TemplateID) String() string {
	if !t.valid() {
		return "UNKNOWN"
	}
	return templates[t].name
}

// Root returns the OID under which the template appears in QRDA documents.
// Synthetic templates such as Placeholder have an empty root.
func (t TemplateID) Root() string {
	if !t.valid() {
		return ""
	}
	return templates[t].root
}

// Extension returns the template version extension, which may be empty.
func (t TemplateID) Extension() string {
	if !t.valid() {
		return ""
	}
	return templates[t].extension
}

func (t TemplateID) valid() bool {
	return t >= 0 && int(t) < len(templates)
}

// TemplateIDFromRoot resolves a document-embedded root OID.
func TemplateIDFromRoot(root string) (TemplateID, bool) {
	t, ok := byRoot[root]
	return t, ok
}

// TemplateIDs returns all known templates in their declared order.
func TemplateIDs() []TemplateID {
	ids := make([]TemplateID, len(templates))
	for i := range templates {
		ids[i] = TemplateID(i)
	}
	return ids
}
