// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the review summary as a Markdown document with a
// PRISMA-style flow diagram and tabulated extraction results.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Input carries everything the report renders.
type Input struct {
	Stats       types.RunStatistics
	Spec        types.PICOS
	Query       string
	RunID       string
	GeneratedAt time.Time
	Articles    []types.ArticleRecord
}

// catalog holds the fixed text of one report language.
type catalog struct {
	title         string
	generatedAt   string
	runLabel      string
	queryHeading  string
	criteria      string
	flowHeading   string
	funnelFound   string
	funnelScreen  string
	funnelExclude string
	funnelInclude string
	funnelFull    string
	picoHeading   string
	robHeading    string
	noIncluded    string
	picoColumns   []string
	robColumns    []string
}

var catalogs = map[string]catalog{
	"EN": {
		title:         "Systematic Review Report",
		generatedAt:   "Generated",
		runLabel:      "Run",
		queryHeading:  "Search Query",
		criteria:      "Review Criteria",
		flowHeading:   "Study Flow",
		funnelFound:   "Records identified",
		funnelScreen:  "Records screened",
		funnelExclude: "Records excluded",
		funnelInclude: "Studies included",
		funnelFull:    "Full texts retrieved",
		picoHeading:   "Study Characteristics",
		robHeading:    "Risk of Bias",
		noIncluded:    "No studies met the inclusion criteria.",
		picoColumns:   []string{"PMID", "Population", "Intervention", "Comparison", "Outcome", "Study Design"},
		robColumns:    []string{"PMID", "Domain", "Level", "Explanation"},
	},
	"KO": {
		title:         "체계적 문헌고찰 보고서",
		generatedAt:   "생성일",
		runLabel:      "실행",
		queryHeading:  "검색식",
		criteria:      "선정 기준",
		flowHeading:   "연구 흐름도",
		funnelFound:   "검색된 문헌",
		funnelScreen:  "선별된 문헌",
		funnelExclude: "제외된 문헌",
		funnelInclude: "포함된 연구",
		funnelFull:    "원문 확보",
		picoHeading:   "연구 특성",
		robHeading:    "비뚤림 위험",
		noIncluded:    "선정 기준을 충족한 연구가 없습니다.",
		picoColumns:   []string{"PMID", "대상자", "중재", "비교", "결과", "연구 설계"},
		robColumns:    []string{"PMID", "영역", "수준", "설명"},
	},
}

// Languages lists the available report languages.
func Languages() []string {
	return []string{"EN", "KO"}
}

// Generate renders the report in the requested language. Unknown
// languages fall back to English. A run with zero included studies still
// produces a complete report.
func Generate(in Input, lang string) string {
	c, ok := catalogs[strings.ToUpper(lang)]
	if !ok {
		c = catalogs["EN"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.title)
	fmt.Fprintf(&b, "- %s: %s\n", c.generatedAt, in.GeneratedAt.Format("2006-01-02 15:04"))
	if in.RunID != "" {
		fmt.Fprintf(&b, "- %s: %s\n", c.runLabel, in.RunID)
	}
	b.WriteString("\n")

	if in.Query != "" {
		fmt.Fprintf(&b, "## %s\n\n```\n%s\n```\n\n", c.queryHeading, in.Query)
	}

	if !in.Spec.IsEmpty() {
		fmt.Fprintf(&b, "## %s\n\n", c.criteria)
		for _, e := range in.Spec.Entries() {
			fmt.Fprintf(&b, "- **%s**: %s\n", e.Key, e.Value)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", c.flowHeading)
	b.WriteString(mermaidFunnel(in.Stats, c))
	b.WriteString("\n")

	included := includedArticles(in.Articles)

	fmt.Fprintf(&b, "## %s\n\n", c.picoHeading)
	if len(included) == 0 {
		fmt.Fprintf(&b, "%s\n\n", c.noIncluded)
	} else {
		b.WriteString(picoTable(included, c))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", c.robHeading)
	if len(included) == 0 {
		fmt.Fprintf(&b, "%s\n", c.noIncluded)
	} else {
		b.WriteString(robTable(included, c))
		b.WriteString("\n")
	}

	return b.String()
}

// WriteFile renders the report and writes it atomically to
// dataDir/report_<LANG>.md, returning the path.
func WriteFile(in Input, lang, dataDir string) (string, error) {
	lang = strings.ToUpper(lang)
	if _, ok := catalogs[lang]; !ok {
		lang = "EN"
	}
	content := Generate(in, lang)
	path := filepath.Join(dataDir, "report_"+lang+".md")

	tmp, err := os.CreateTemp(dataDir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.WriteString(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing report: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming report: %w", err)
	}
	return path, nil
}

// mermaidFunnel renders the PRISMA flow as a mermaid diagram.
func mermaidFunnel(stats types.RunStatistics, c catalog) string {
	var b strings.Builder
	b.WriteString("```mermaid\ngraph TD\n")
	fmt.Fprintf(&b, "    A[\"%s: %d\"] --> B[\"%s: %d\"]\n", c.funnelFound, stats.TotalFound, c.funnelScreen, stats.Screened)
	fmt.Fprintf(&b, "    B --> C[\"%s: %d\"]\n", c.funnelExclude, stats.Excluded)
	fmt.Fprintf(&b, "    B --> D[\"%s: %d\"]\n", c.funnelInclude, stats.Included)
	fmt.Fprintf(&b, "    D --> E[\"%s: %d\"]\n", c.funnelFull, stats.Retrieved)
	b.WriteString("```\n")
	return b.String()
}

func includedArticles(recs []types.ArticleRecord) []types.ArticleRecord {
	var included []types.ArticleRecord
	for _, rec := range recs {
		if rec.ScreeningDecision == types.DecisionIncluded {
			included = append(included, rec)
		}
	}
	return included
}

func picoTable(recs []types.ArticleRecord, c catalog) string {
	t := table.NewWriter()
	header := table.Row{}
	for _, col := range c.picoColumns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, rec := range recs {
		fields := types.PICOFields{}
		if rec.Extracted != nil {
			fields = *rec.Extracted
		}
		t.AppendRow(table.Row{
			rec.PMID, fields.Population, fields.Intervention,
			fields.Comparison, fields.Outcome, fields.StudyDesign,
		})
	}
	return t.RenderMarkdown()
}

func robTable(recs []types.ArticleRecord, c catalog) string {
	t := table.NewWriter()
	header := table.Row{}
	for _, col := range c.robColumns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, rec := range recs {
		if rec.RiskOfBias == nil {
			continue
		}
		for _, domain := range types.BiasDomains {
			a := rec.RiskOfBias[domain]
			t.AppendRow(table.Row{rec.PMID, domain, string(a.Level), a.Explanation})
		}
	}
	return t.RenderMarkdown()
}
