// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize parses raw PubMed efetch XML into article records and
// filters out entries whose publication year is missing or implausible.
package normalize

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// XML structures for the PubmedArticleSet payload. Only the fields the
// pipeline consumes are mapped.
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
	Data     pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string         `xml:"PMID"`
	Article articleElement `xml:"Article"`
}

type articleElement struct {
	Title    string   `xml:"ArticleTitle"`
	Journal  journal  `xml:"Journal"`
	Abstract abstract `xml:"Abstract"`
}

type journal struct {
	Title string  `xml:"Title"`
	Issue pubDate `xml:"JournalIssue>PubDate"`
}

type pubDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

type abstract struct {
	Sections []string `xml:"AbstractText"`
}

type pubmedData struct {
	IDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// Result summarizes a normalization pass.
type Result struct {
	Records []types.ArticleRecord
	Dropped int
}

// Normalize parses a raw efetch payload into article records, preserving
// the payload's order. Records without a parseable publication year, or
// dated later than currentYear plus the configured offset, are dropped
// and counted rather than kept.
func Normalize(payload string, currentYear int, cfg types.NormalizeConfig) (Result, error) {
	var set articleSet
	if err := xml.Unmarshal([]byte(payload), &set); err != nil {
		return Result{}, fmt.Errorf("parsing article XML: %w", err)
	}

	maxYear := currentYear + cfg.MaxYearOffset
	var res Result
	for _, a := range set.Articles {
		year, ok := pubYear(a.Citation.Article.Journal.Issue)
		if !ok || year > maxYear {
			res.Dropped++
			continue
		}

		rec := types.ArticleRecord{
			PMID:        strings.TrimSpace(a.Citation.PMID),
			ExternalIDs: map[types.IDType]string{},
			Title:       strings.TrimSpace(a.Citation.Article.Title),
			Abstract:    strings.TrimSpace(strings.Join(a.Citation.Article.Abstract.Sections, " ")),
			Journal:     strings.TrimSpace(a.Citation.Article.Journal.Title),
			PubYear:     year,
			Status:      types.StatusNormalized,
		}
		for _, id := range a.Data.IDs {
			switch id.Type {
			case "doi":
				rec.ExternalIDs[types.IDDOI] = strings.TrimSpace(id.Value)
			case "pmc":
				rec.ExternalIDs[types.IDPMC] = strings.TrimSpace(id.Value)
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// pubYear extracts a four-digit year from a PubDate element, falling back
// to the leading year of a MedlineDate range like "2023 Jan-Feb".
func pubYear(d pubDate) (int, bool) {
	if y := strings.TrimSpace(d.Year); y != "" {
		if year, err := strconv.Atoi(y); err == nil {
			return year, true
		}
	}
	fields := strings.Fields(d.MedlineDate)
	if len(fields) > 0 {
		if year, err := strconv.Atoi(fields[0]); err == nil {
			return year, true
		}
	}
	return 0, false
}
