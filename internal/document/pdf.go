package document

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func (e *Extractor) extractPDF(ctx context.Context, doc *Document) (*Extraction, error) {
	x := &Extraction{Kind: KindPDF}

	reader, openErr := openPDF(doc.Data)
	pdfctx, ctxErr := readPDFContext(doc.Data)

	switch {
	case openErr != nil && ctxErr != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, openErr)
	case ctxErr == nil:
		x.setMeta("pdf_pages", strconv.Itoa(pdfctx.PageCount))
		if pdfctx.HeaderVersion != nil {
			x.setMeta("pdf_version", pdfctx.HeaderVersion.String())
		}
	default:
		e.logger.Debug("pdfcpu could not read document", "document", doc.Name, "error", ctxErr)
	}

	if openErr != nil {
		// Structure is readable but text is not: every page degrades to empty.
		e.logger.Warn("text layer unreadable", "document", doc.Name, "error", openErr)
		for n := 1; n <= pdfctx.PageCount; n++ {
			x.Pages = append(x.Pages, PageText{Number: n})
			x.addError(fmt.Sprintf("page %d", n), openErr)
		}
	} else {
		for n := 1; n <= reader.NumPage(); n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			page, err := readPage(reader, n)
			if err != nil {
				x.addError(fmt.Sprintf("page %d", n), err)
			}
			x.Pages = append(x.Pages, page)
		}
	}

	if e.acroForms && ctxErr == nil {
		fields, err := acroFields(pdfctx)
		if err != nil {
			x.addError("acroform", err)
		}
		x.FormFields = fields
	}
	return x, nil
}

// openPDF opens the text layer, converting parser panics into errors
func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("pdf parser panic: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func readPDFContext(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if p := recover(); p != nil {
			ctx, err = nil, fmt.Errorf("pdfcpu panic: %v", p)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err = api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// readPage extracts one page's text and tables. A failure yields an empty
// page alongside the error.
func readPage(r *pdf.Reader, n int) (page PageText, err error) {
	page.Number = n
	defer func() {
		if p := recover(); p != nil {
			page = PageText{Number: n}
			err = fmt.Errorf("panic extracting page: %v", p)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return page, nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return PageText{Number: n}, fmt.Errorf("failed to extract text: %w", err)
	}
	page.Text = text

	rows, err := p.GetTextByRow()
	if err == nil {
		page.Tables = detectTables(rowCells(rows))
	}
	return page, nil
}
