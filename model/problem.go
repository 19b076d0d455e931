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

import (
	"fmt"
	"strings"
)

// ProblemCode is a catalogued validation or conversion problem. The Template
// is a fmt format string. Codes without verbs can be used as is.
type ProblemCode struct {
	Code     int
	Name     string
	Template string
}

// LocalizedProblem is a ProblemCode with all of its parameters filled in.
type LocalizedProblem struct {
	Code    int
	Message string
}

// Format fills the template parameters in order.
func (p ProblemCode) Format(args ...any) LocalizedProblem {
	msg := p.Template
	if len(args) > 0 {
		msg = fmt.Sprintf(p.Template, args...)
	}
	return LocalizedProblem{Code: p.Code, Message: msg}
}

// Problem returns the code as a LocalizedProblem. It panics if the template
// still needs parameters.
func (p ProblemCode) Problem() LocalizedProblem {
	if p.HasParameters() {
		panic(fmt.Sprintf("problem %s requires parameters", p.Name))
	}
	return LocalizedProblem{Code: p.Code, Message: p.Template}
}

// HasParameters reports whether the template contains format verbs.
func (p ProblemCode) HasParameters() bool {
	return strings.Contains(strings.ReplaceAll(p.Template, "%%", ""), "%")
}

func (p ProblemCode) String() string {
	return p.Name
}

var (
	NotValidXmlDocument = ProblemCode{1, "NOT_VALID_XML_DOCUMENT",
		"The file is not a valid XML document"}
	NotValidQrdaDocument = ProblemCode{2, "NOT_VALID_QRDA_DOCUMENT",
		"The file is not a QRDA-III XML document. Please ensure that the submission complies with the %s implementation guide"}
	UnexpectedError = ProblemCode{3, "UNEXPECTED_ERROR",
		"Unexpected exception occurred during conversion. Please contact the service desk about this issue"}
	UnexpectedEncodeError = ProblemCode{4, "UNEXPECTED_ENCODE_ERROR",
		"Failure to encode: %s"}

	ClinicalDocumentMissingProgramName = ProblemCode{10, "CLINICAL_DOCUMENT_MISSING_PROGRAM_NAME",
		"Clinical Document must have a program name"}
	ClinicalDocumentIncorrectProgramName = ProblemCode{11, "CLINICAL_DOCUMENT_INCORRECT_PROGRAM_NAME",
		"The Clinical Document program name %s is not recognized. Valid program names are %s"}
	ClinicalDocumentMissingTin = ProblemCode{12, "CLINICAL_DOCUMENT_MISSING_TIN",
		"Clinical Document must have a taxpayer identification number"}
	ClinicalDocumentMissingMeasureSection = ProblemCode{13, "CLINICAL_DOCUMENT_MISSING_MEASURE_SECTION",
		"Clinical Document must have at least one ACI, IA or quality measure section"}
	ClinicalDocumentDuplicateSection = ProblemCode{14, "CLINICAL_DOCUMENT_DUPLICATE_SECTION",
		"Clinical Document contains duplicate %s sections"}

	ReportingParametersMissingPerformanceStart = ProblemCode{20, "REPORTING_PARAMETERS_MISSING_PERFORMANCE_START",
		"The reporting parameters act must have a performance period start"}
	ReportingParametersMissingPerformanceEnd = ProblemCode{21, "REPORTING_PARAMETERS_MISSING_PERFORMANCE_END",
		"The reporting parameters act must have a performance period end"}
	ReportingParametersInvalidDate = ProblemCode{22, "REPORTING_PARAMETERS_INVALID_DATE",
		"The reporting parameters date %s is not a valid date in the format yyyyMMdd"}
	ReportingParametersStartAfterEnd = ProblemCode{23, "REPORTING_PARAMETERS_START_AFTER_END",
		"The performance period start %s must not be after the performance period end %s"}

	AciSectionMissingMeasures = ProblemCode{30, "ACI_SECTION_MISSING_MEASURES",
		"The ACI section must have at least one ACI measure"}
	AciMeasureMissingID = ProblemCode{31, "ACI_MEASURE_MISSING_ID",
		"An ACI measure must have a measure id"}
	AciMeasureNumeratorCount = ProblemCode{32, "ACI_MEASURE_NUMERATOR_COUNT",
		"The ACI measure %s must have exactly one numerator"}
	AciMeasureDenominatorCount = ProblemCode{33, "ACI_MEASURE_DENOMINATOR_COUNT",
		"The ACI measure %s must have exactly one denominator"}
	AciMeasureDuplicateID = ProblemCode{34, "ACI_MEASURE_DUPLICATE_ID",
		"The ACI measure %s must not be reported more than once"}
	AciNumeratorAggregateCount = ProblemCode{35, "ACI_NUMERATOR_AGGREGATE_COUNT",
		"An ACI numerator must have exactly one aggregate count"}
	AciDenominatorAggregateCount = ProblemCode{36, "ACI_DENOMINATOR_AGGREGATE_COUNT",
		"An ACI denominator must have exactly one aggregate count"}
	AggregateCountMissing = ProblemCode{37, "AGGREGATE_COUNT_MISSING",
		"An aggregate count must have a value"}
	AggregateCountInvalid = ProblemCode{38, "AGGREGATE_COUNT_INVALID",
		"The aggregate count %s must be a non-negative whole number"}

	IaSectionMissingMeasures = ProblemCode{40, "IA_SECTION_MISSING_MEASURES",
		"The IA section must have at least one IA measure"}
	IaMeasureMissingID = ProblemCode{41, "IA_MEASURE_MISSING_ID",
		"An IA measure must have a measure id"}
	IaMeasurePerformedCount = ProblemCode{42, "IA_MEASURE_PERFORMED_COUNT",
		"The IA measure %s must have exactly one measure performed"}
	MeasurePerformedInvalidValue = ProblemCode{43, "MEASURE_PERFORMED_INVALID_VALUE",
		"The measure performed value %s must be either Y or N"}
	MeasurePerformedMissing = ProblemCode{44, "MEASURE_PERFORMED_MISSING",
		"A measure performed must have a value"}

	QualitySectionMissingMeasures = ProblemCode{50, "QUALITY_SECTION_MISSING_MEASURES",
		"The quality measure section must have at least one measure reference and results"}
	MeasureGuidMissing = ProblemCode{51, "MEASURE_GUID_MISSING",
		"The measure reference results must have a measure GUID"}
	NoChildMeasure = ProblemCode{52, "NO_CHILD_MEASURE",
		"The measure reference results must have at least one measure"}
	RequiredChildMeasure = ProblemCode{53, "REQUIRED_CHILD_MEASURE",
		"The eCQM measure requires a %s"}
	QualityMeasureIDIncorrectUUID = ProblemCode{54, "QUALITY_MEASURE_ID_INCORRECT_UUID",
		"The eCQM (electronic measure id: %s) requires a %s with the correct UUID of %s"}
	QualityMeasureIDMissingSinglePerformanceRate = ProblemCode{55, "QUALITY_MEASURE_ID_MISSING_SINGLE_PERFORMANCE_RATE",
		"A Performance Rate must contain a single Performance Rate UUID"}

	MeasureDataMissingAggregateCount = ProblemCode{60, "MEASURE_DATA_MISSING_AGGREGATE_COUNT",
		"Measure data must have exactly one aggregate count"}
	MeasureDataInvalidType = ProblemCode{61, "MEASURE_DATA_INVALID_TYPE",
		"Measure data type %s must be one of IPOP, DENOM, DENEX, NUMER or DENEXCEP"}
	MeasureDataMissingPopulationID = ProblemCode{62, "MEASURE_DATA_MISSING_POPULATION_ID",
		"Measure data must reference a population id"}
	MeasureDataMissingType = ProblemCode{63, "MEASURE_DATA_MISSING_TYPE",
		"Measure data must have a population type"}

	PerformanceRateMissing = ProblemCode{70, "PERFORMANCE_RATE_MISSING",
		"Must enter a Performance Rate value"}
	PerformanceRateInvalidValue = ProblemCode{71, "PERFORMANCE_RATE_INVALID_VALUE",
		"The Performance Rate %s is invalid. It must be a decimal between 0 and 1"}
	PerformanceRateMissingUUID = ProblemCode{72, "PERFORMANCE_RATE_MISSING_UUID",
		"A Performance Rate must reference a performance rate UUID"}
)

// ProblemCodes returns the complete catalog ordered by code.
func ProblemCodes() []ProblemCode {
	return []ProblemCode{
		NotValidXmlDocument,
		NotValidQrdaDocument,
		UnexpectedError,
		UnexpectedEncodeError,
		ClinicalDocumentMissingProgramName,
		ClinicalDocumentIncorrectProgramName,
		ClinicalDocumentMissingTin,
		ClinicalDocumentMissingMeasureSection,
		ClinicalDocumentDuplicateSection,
		ReportingParametersMissingPerformanceStart,
		ReportingParametersMissingPerformanceEnd,
		ReportingParametersInvalidDate,
		ReportingParametersStartAfterEnd,
		AciSectionMissingMeasures,
		AciMeasureMissingID,
		AciMeasureNumeratorCount,
		AciMeasureDenominatorCount,
		AciMeasureDuplicateID,
		AciNumeratorAggregateCount,
		AciDenominatorAggregateCount,
		AggregateCountMissing,
		AggregateCountInvalid,
		IaSectionMissingMeasures,
		IaMeasureMissingID,
		IaMeasurePerformedCount,
		MeasurePerformedInvalidValue,
		MeasurePerformedMissing,
		QualitySectionMissingMeasures,
		MeasureGuidMissing,
		NoChildMeasure,
		RequiredChildMeasure,
		QualityMeasureIDIncorrectUUID,
		QualityMeasureIDMissingSinglePerformanceRate,
		MeasureDataMissingAggregateCount,
		MeasureDataInvalidType,
		MeasureDataMissingPopulationID,
		MeasureDataMissingType,
		PerformanceRateMissing,
		PerformanceRateInvalidValue,
		PerformanceRateMissingUUID,
	}
}
