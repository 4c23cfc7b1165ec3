package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

// docxBody keeps paragraphs and tables in document order
type docxBody struct {
	Items []docxBlock `xml:",any"`
}

type docxBlock struct {
	XMLName xml.Name
	PPr     *docxParaPr `xml:"pPr"`
	Runs    []docxRun   `xml:"r"`
	Rows    []docxRow   `xml:"tr"`
}

type docxPara struct {
	PPr  *docxParaPr `xml:"pPr"`
	Runs []docxRun   `xml:"r"`
}

type docxParaPr struct {
	PStyle *docxPStyle `xml:"pStyle"`
}

type docxPStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

// extractDOCX reads word/document.xml. Paragraphs are concatenated into a
// single unit; heading styles are recorded with their level.
func (e *Extractor) extractDOCX(doc *Document) (*Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: word/document.xml not found", ErrUnreadable)
	}

	x := &Extraction{Kind: KindDOCX}
	page := PageText{Number: 1}

	data, err := readZipFile(body)
	if err == nil {
		err = parseDocx(data, x, &page)
	}
	if err != nil {
		x.addError("document body", err)
		page = PageText{Number: 1}
		x.Headings = nil
	}
	x.Pages = []PageText{page}
	return x, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func parseDocx(data []byte, x *Extraction, page *PageText) error {
	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing document.xml: %w", err)
	}

	var lines []string
	for _, item := range doc.Body.Items {
		switch item.XMLName.Local {
		case "p":
			text := runText(item.Runs)
			if item.PPr != nil && item.PPr.PStyle != nil {
				if level := HeadingLevel(item.PPr.PStyle.Val); level > 0 && strings.TrimSpace(text) != "" {
					x.Headings = append(x.Headings, Heading{Text: strings.TrimSpace(text), Level: level})
				}
			}
			lines = append(lines, text)
		case "tbl":
			table := Table{}
			for _, row := range item.Rows {
				cells := make([]string, 0, len(row.Cells))
				for _, cell := range row.Cells {
					parts := make([]string, 0, len(cell.Paras))
					for _, p := range cell.Paras {
						if t := strings.TrimSpace(runText(p.Runs)); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				table.Rows = append(table.Rows, cells)
				lines = append(lines, strings.Join(cells, " | "))
			}
			if len(table.Rows) > 0 {
				page.Tables = append(page.Tables, table)
			}
		}
	}
	page.Text = strings.Join(lines, "\n")
	return nil
}

func runText(runs []docxRun) string {
	var b strings.Builder
	for _, r := range runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// HeadingLevel maps a paragraph style to a heading level: "heading 1" to
// "heading 3" keep their number, any other heading style is 4, a title is 1,
// and non-heading styles are 0. Style ids without the space ("Heading2")
// are accepted too.
func HeadingLevel(style string) int {
	s := strings.ReplaceAll(strings.ToLower(style), " ", "")
	switch {
	case strings.Contains(s, "heading1"):
		return 1
	case strings.Contains(s, "heading2"):
		return 2
	case strings.Contains(s, "heading3"):
		return 3
	case strings.Contains(s, "heading"):
		return 4
	case strings.Contains(s, "title"):
		return 1
	}
	return 0
}
