package model

import "fmt"

// CodeType identifies a reference vocabulary. The set is closed; the value is
// also the URL path segment the vocabulary is served under.
type CodeType string

const (
	Assemblage           CodeType = "assemblage"
	CharacteristicName   CodeType = "characteristicname"
	CharacteristicType   CodeType = "characteristictype"
	CountryCode          CodeType = "countrycode"
	CountyCode           CodeType = "countycode"
	MonitoringLocation   CodeType = "monitoringlocation"
	Organization         CodeType = "organization"
	Project              CodeType = "project"
	Providers            CodeType = "providers"
	SampleMedia          CodeType = "samplemedia"
	SiteType             CodeType = "sitetype"
	StateCode            CodeType = "statecode"
	SubjectTaxonomicName CodeType = "subjecttaxonomicname"
)

// codeTypeInfo describes where a vocabulary lives and how it is documented.
type codeTypeInfo struct {
	table string
	tag   string
}

var codeTypes = map[CodeType]codeTypeInfo{
	Assemblage:           {table: "assemblage", tag: "Assemblage"},
	CharacteristicName:   {table: "characteristic_name", tag: "Characteristic Name"},
	CharacteristicType:   {table: "characteristic_type", tag: "Characteristic Type"},
	CountryCode:          {table: "country_code", tag: "Country Code"},
	CountyCode:           {table: "county_code", tag: "County Code"},
	MonitoringLocation:   {table: "monitoring_location", tag: "Monitoring Location"},
	Organization:         {table: "organization", tag: "Organization"},
	Project:              {table: "project", tag: "Project"},
	Providers:            {table: "providers", tag: "Providers"},
	SampleMedia:          {table: "sample_media", tag: "Sample Media"},
	SiteType:             {table: "site_type", tag: "Site Type"},
	StateCode:            {table: "state_code", tag: "State Code"},
	SubjectTaxonomicName: {table: "subject_taxonomic_name", tag: "Taxonomic Name"},
}

// CodeTypes returns every code type in a stable order.
func CodeTypes() []CodeType {
	return []CodeType{
		Assemblage,
		CharacteristicName,
		CharacteristicType,
		CountryCode,
		CountyCode,
		MonitoringLocation,
		Organization,
		Project,
		Providers,
		SampleMedia,
		SiteType,
		StateCode,
		SubjectTaxonomicName,
	}
}

// ParseCodeType maps a path segment to its CodeType.
func ParseCodeType(s string) (CodeType, error) {
	ct := CodeType(s)
	if _, ok := codeTypes[ct]; !ok {
		return "", fmt.Errorf("unknown code type %q", s)
	}
	return ct, nil
}

// Valid reports whether ct is one of the known code types.
func (ct CodeType) Valid() bool {
	_, ok := codeTypes[ct]
	return ok
}

// Table is the backing table name for the code type.
func (ct CodeType) Table() string {
	return codeTypes[ct].table
}

// Tag is the documentation group the code type is listed under.
func (ct CodeType) Tag() string {
	return codeTypes[ct].tag
}

func (ct CodeType) String() string {
	return string(ct)
}
