package model

import "encoding/xml"

// Code is a single entry of a controlled reference vocabulary.
// Description and Providers are nullable in the store; NULL is carried as the
// empty string and left out of the serialized forms.
type Code struct {
	XMLName   xml.Name `json:"-" xml:"Code"`
	Value     string   `json:"value" xml:"value,attr"`
	Desc      string   `json:"desc,omitempty" xml:"desc,attr,omitempty"`
	Providers string   `json:"providers,omitempty" xml:"providers,attr,omitempty"`
}

// CodeList is one page of codes plus the number of codes matching the query
// before pagination was applied.
type CodeList struct {
	XMLName     xml.Name `json:"-" xml:"Codes"`
	Codes       []Code   `json:"codes" xml:"Code"`
	RecordCount int      `json:"recordCount" xml:"recordCount"`
}
