// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

var xmpSkipNamespaces = map[string]bool{
	"xmlns":      true,
	namespaceRDF: true,
}

var (
	elemRDFRoot        = xml.Name{Space: namespaceRDF, Local: "RDF"}
	elemRDFDescription = xml.Name{Space: namespaceRDF, Local: "Description"}
	elemRDFLi          = xml.Name{Space: namespaceRDF, Local: "li"}
)

// XMPProperties is a flat mapping from prefix qualified property names,
// e.g. "crs:Exposure2012", to their values.
//
// The prefixes are fixed ("crs" for the Camera Raw namespace and "xmp" for XMP basic)
// and do not depend on the prefixes used in the packet.
type XMPProperties map[string]PropertyValue

// PropertyValue is a typed XMP property value.
type PropertyValue struct {
	// Text is the raw text value as found in the packet, trimmed.
	Text string
	// Number is the numeric value, if IsNumber returns true.
	Number float64

	isNumber bool
}

// IsNumber reports whether v holds a number.
func (v PropertyValue) IsNumber() bool {
	return v.isNumber
}

// Software returns the editing application that last wrote the packet,
// e.g. "Adobe Photoshop Lightroom Classic 12.4 (Macintosh)".
// If only the Camera Raw version is known, a name is composed from that.
func (p XMPProperties) Software() string {
	if v, ok := p[propCreatorTool]; ok && v.Text != "" {
		return v.Text
	}
	if v, ok := p[propVersion]; ok && v.Text != "" {
		return "Adobe Camera Raw " + v.Text
	}
	return ""
}

// ParseXMP parses the RDF/XML in packet and returns the known Lightroom and
// Camera Raw properties.
// An empty or malformed packet returns an empty mapping.
func ParseXMP(packet []byte) XMPProperties {
	return parseXMP(packet, func(string, ...any) {})
}

func parseXMP(packet []byte, warnf func(string, ...any)) XMPProperties {
	props := make(XMPProperties)

	packet = bytes.TrimSpace(trimBytesNulls(packet))
	if len(packet) == 0 {
		return props
	}

	raw, err := decodeRDF(bytes.NewReader(packet))
	if err != nil {
		warnf("xmp: %s", newMalformedXMPError(err))
		return props
	}

	for _, p := range raw {
		key, ok := qualifiedName(p.name)
		if !ok {
			continue
		}
		kind, known := xmpFields[key]
		if !known {
			continue
		}
		if _, exists := props[key]; exists {
			continue
		}
		v, err := typedValue(kind, p.value)
		if err != nil {
			warnf("xmp: dropping %s: %s", key, err)
			continue
		}
		props[key] = v
	}

	return props
}

func qualifiedName(name xml.Name) (string, bool) {
	prefix, ok := xmpPrefixes[name.Space]
	if !ok || name.Local == "" {
		return "", false
	}
	return prefix + ":" + name.Local, true
}

func typedValue(kind xmpFieldKind, s string) (PropertyValue, error) {
	v := PropertyValue{Text: s}
	if kind != xmpNumber {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || isUndefined(f) {
		return PropertyValue{}, fmt.Errorf("invalid number %q", s)
	}
	v.Number = f
	v.isNumber = true
	return v, nil
}

type rdfProperty struct {
	name  xml.Name
	value string
}

// decodeRDF walks the rdf:RDF element and collects the simple properties of
// every rdf:Description, both in attribute and element form.
// Single item rdf:Alt, rdf:Seq and rdf:Bag lists are treated as simple values,
// other struct and array values are skipped.
func decodeRDF(r io.Reader) ([]rdfProperty, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var (
		props []rdfProperty

		level            int
		descriptionLevel = -1
		propertyLevel    = -1

		propertyName xml.Name
		text         strings.Builder
		items        []string
		inItem       bool
		skipProperty bool
	)

	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := t.(type) {
		case xml.StartElement:
			if level == 0 && t.Name != elemRDFRoot {
				continue
			}
			level++

			switch {
			case descriptionLevel < 0 && t.Name == elemRDFDescription:
				descriptionLevel = level
				for _, attr := range t.Attr {
					if xmpSkipNamespaces[attr.Name.Space] || attr.Name.Space == "" {
						continue
					}
					props = append(props, rdfProperty{name: attr.Name, value: strings.TrimSpace(attr.Value)})
				}
			case descriptionLevel >= 0 && propertyLevel < 0:
				propertyLevel = level
				propertyName = t.Name
				text.Reset()
				items = nil
				inItem = false
				skipProperty = false
			case propertyLevel >= 0:
				switch {
				case level == propertyLevel+1 && isRDFContainer(t.Name):
				case level == propertyLevel+2 && t.Name == elemRDFLi:
					inItem = true
					text.Reset()
				default:
					skipProperty = true
				}
			}
		case xml.CharData:
			if propertyLevel >= 0 {
				text.Write(t)
			}
		case xml.EndElement:
			if level == 0 {
				continue
			}

			switch {
			case inItem && level == propertyLevel+2:
				items = append(items, strings.TrimSpace(text.String()))
				inItem = false
				text.Reset()
			case level == propertyLevel:
				if !skipProperty {
					switch len(items) {
					case 0:
						props = append(props, rdfProperty{name: propertyName, value: strings.TrimSpace(text.String())})
					case 1:
						props = append(props, rdfProperty{name: propertyName, value: items[0]})
					}
				}
				propertyLevel = -1
			case level == descriptionLevel:
				descriptionLevel = -1
			}

			level--
		}
	}

	return props, nil
}

func isRDFContainer(name xml.Name) bool {
	if name.Space != namespaceRDF {
		return false
	}
	switch name.Local {
	case "Alt", "Seq", "Bag":
		return true
	}
	return false
}

// charsetReader handles packets declaring a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
