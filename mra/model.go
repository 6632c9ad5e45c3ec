package mra

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

type DocVar struct {
	XMLName xml.Name `xml:"docvar"`
	Key     string   `xml:"key,attr"`
	Val     string   `xml:"value,attr"`
}

type DocVars struct {
	XMLName xml.Name `xml:"docvars"`
	Vars    []DocVar `xml:"docvar"`
}

func (d DocVars) lookup(key string) string {
	for _, v := range d.Vars {
		if v.Key == key {
			return v.Val
		}
	}
	return ""
}

func (d DocVars) Mnemonic() string   { return d.lookup("mnemonic") }
func (d DocVars) InstrClass() string { return d.lookup("instr-class") }

type PsText struct {
	XMLName xml.Name `xml:"pstext"`
	Content string   `xml:",innerxml"`
}

type Ps struct {
	XMLName xml.Name `xml:"ps"`
	Name    string   `xml:"name,attr"`
	PsText  PsText   `xml:"pstext"`
}

type PsSection struct {
	XMLName xml.Name `xml:"ps_section"`
	Ps      Ps       `xml:"ps"`
}

type ArchVariant struct {
	XMLName xml.Name `xml:"arch_variant"`
	Name    string   `xml:"name,attr"`
	Feature string   `xml:"feature,attr"`
}

type ArchVariants struct {
	XMLName  xml.Name      `xml:"arch_variants"`
	Variants []ArchVariant `xml:"arch_variant"`
}

func (a ArchVariants) GetVariants() []string {
	var vars []string
	for _, v := range a.Variants {
		vars = append(vars, v.Name)
	}
	return vars
}

func (a ArchVariants) GetFeatures() []string {
	var feats []string
	for _, v := range a.Variants {
		feats = append(feats, v.Feature)
	}
	return feats
}

// BitC is one <c> cell of a box; it spans Cols bits.
type BitC struct {
	XMLName xml.Name `xml:"c"`
	Cols    int      `xml:"colspan,attr"`
	Value   string   `xml:",chardata"`
}

func (c BitC) width() int {
	if c.Cols == 0 {
		return 1
	}
	return c.Cols
}

// Box is a field of the encoding diagram. HiBit and Width are kept as text
// because older XML releases omit them.
type Box struct {
	XMLName    xml.Name `xml:"box"`
	Bits       []BitC   `xml:"c"`
	Name       string   `xml:"name,attr"`
	Constraint string   `xml:"constraint,attr"`
	HiBit      string   `xml:"hibit,attr"`
	Width      string   `xml:"width,attr"`
}

type RegDiagram struct {
	XMLName xml.Name `xml:"regdiagram"`
	Name    string   `xml:"psname,attr"`
	Boxes   []Box    `xml:"box"`
}

// String renders the diagram as name=bits fields separated by '|'. Constraint
// boxes render as name!=bits.
func (r RegDiagram) String() string {
	b := &bytes.Buffer{}
	for i, box := range r.Boxes {
		if box.Name != "" {
			fmt.Fprint(b, box.Name)
		}
		if box.Constraint != "" {
			fmt.Fprint(b, strings.ReplaceAll(box.Constraint, " ", ""), "|")
			continue
		} else if box.Name != "" {
			fmt.Fprint(b, "=")
		}
		for _, bit := range box.Bits {
			v := bit.Value
			if v == "" {
				v = "x"
			}
			v = strings.ReplaceAll(v, "(1)", "1")
			v = strings.ReplaceAll(v, "(0)", "0")
			fmt.Fprint(b, strings.Repeat(v, bit.width()))
		}
		if i != len(r.Boxes)-1 {
			fmt.Fprint(b, "|")
		}
	}
	return b.String()
}

type Encoding struct {
	XMLName xml.Name `xml:"encoding"`
	Name    string   `xml:"name,attr"`
	Docs    DocVars  `xml:"docvars"`
}

type IClass struct {
	XMLName      xml.Name     `xml:"iclass"`
	Name         string       `xml:"name,attr"`
	Id           string       `xml:"id,attr"`
	RegDiagram   RegDiagram   `xml:"regdiagram"`
	ArchVariants ArchVariants `xml:"arch_variants"`
	Code         PsSection    `xml:"ps_section"`
	Encodings    []Encoding   `xml:"encoding"`
	Docs         DocVars      `xml:"docvars"`
}

type Classes struct {
	XMLName xml.Name `xml:"classes"`
	IClass  []IClass `xml:"iclass"`
}

// InsnSection is the root element of one instruction XML file.
type InsnSection struct {
	XMLName xml.Name  `xml:"instructionsection"`
	Docs    DocVars   `xml:"docvars"`
	Type    string    `xml:"type,attr"`
	Id      string    `xml:"id,attr"`
	Classes Classes   `xml:"classes"`
	Code    PsSection `xml:"ps_section"`
}

// ParseSection decodes one instruction XML document.
func ParseSection(data []byte) (InsnSection, error) {
	var is InsnSection
	if err := xml.Unmarshal(data, &is); err != nil {
		return InsnSection{}, err
	}
	return is, nil
}
