// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// TEI structures for the GROBID response. Divisions map to article
// sections; each holds an optional head plus paragraph text.
type teiDocument struct {
	XMLName xml.Name `xml:"TEI"`
	Body    teiBody  `xml:"text>body"`
}

type teiBody struct {
	Divs []teiDiv `xml:"div"`
}

type teiDiv struct {
	Head       string   `xml:"head"`
	Paragraphs []string `xml:"p"`
}

// ExtractText pulls the article body out of a TEI XML document as plain
// text. Section heads become their own lines; paragraph whitespace is
// collapsed to single spaces.
func ExtractText(teiXML string) (string, error) {
	var doc teiDocument
	if err := xml.Unmarshal([]byte(teiXML), &doc); err != nil {
		return "", fmt.Errorf("parsing TEI XML: %w", err)
	}

	var parts []string
	for _, div := range doc.Body.Divs {
		if head := collapse(div.Head); head != "" {
			parts = append(parts, head)
		}
		for _, p := range div.Paragraphs {
			if text := collapse(p); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// collapse trims a fragment and folds internal whitespace runs into
// single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
