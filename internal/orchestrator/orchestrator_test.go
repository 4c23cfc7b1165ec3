package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/inference"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Construction Site Report
Date of Inspection: 03/14/2024
General Information
Site Name: Riverside Lot

Weather
Temperature: 70
Precipitation: none
Inspector Information
Inspector Name: J. Doe`

const aiForm = `Here is the schema:
{"name":"xf:form","props":{"xfPageNavigation":"toc","children":[
 {"name":"xf:page","props":{"xfName":"site","xfLabel":"Site","children":[
  {"name":"xf:string","props":{"xfName":"site_name","xfLabel":"Site Name"}},
  {"name":"xf:date","props":{"xfName":"visit_date","xfLabel":"Visit Date"}}
 ]}}
]}}`

// valid envelope, but the select carries no options
const aiFormEmptySelect = `{"name":"xf:form","props":{"children":[
 {"name":"xf:page","props":{"xfName":"site","xfLabel":"Site","children":[
  {"name":"xf:select","props":{"xfName":"status","xfLabel":"Status"}}
 ]}}
]}}`

func pdfText(text string) *document.Extraction {
	return &document.Extraction{
		Kind:  document.KindPDF,
		Pages: []document.PageText{{Number: 1, Text: text}},
	}
}

func pdfRequest() Request {
	return Request{
		Document:  &document.Document{Name: "report.pdf", Kind: document.KindPDF},
		SessionID: "s1",
	}
}

func tiersBy(res *Result, outcome string) []string {
	var out []string
	for _, a := range res.Attempts {
		if a.Outcome == outcome {
			out = append(out, a.Tier)
		}
	}
	return out
}

func TestEmptyDocumentYieldsDefaultForm(t *testing.T) {
	o := New(WithClient(inference.NewMockClient(aiForm)))
	doc := &document.Document{Name: "blank.doc", Kind: document.KindDOC}

	res, err := o.Extract(context.Background(), Request{Document: doc, SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, TierDefault, res.Tier)
	require.Len(t, res.Form.Pages, 1)
	page := res.Form.Pages[0]
	assert.Equal(t, "general_information", page.Name)
	require.Len(t, page.Children, 4)

	name, ok := page.Field("document_name")
	require.True(t, ok)
	assert.Equal(t, "blank", name.Default)
	for _, n := range []string{"inspection_date", "inspector_name", "notes"} {
		_, ok := page.Field(n)
		assert.True(t, ok, n)
	}
	assert.True(t, res.Validation.Valid, res.Validation.Errors)

	assert.Equal(t, []string{TierFineTuned, TierGeneral, TierEnhanced, TierBasic, TierStructure}, tiersBy(res, OutcomeSkipped))
	assert.Empty(t, tiersBy(res, OutcomeFailed))
}

func TestHeuristicTierWithoutClient(t *testing.T) {
	o := New()
	res, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText(report))
	require.NoError(t, err)

	assert.Equal(t, TierEnhanced, res.Tier)
	assert.True(t, res.Validation.Valid, res.Validation.Errors)
	_, ok := res.Form.Page("weather")
	assert.True(t, ok)
	assert.Equal(t, []string{TierFineTuned, TierGeneral}, tiersBy(res, OutcomeSkipped))
	assert.False(t, o.AIEnabled())
}

func TestGeneralAITier(t *testing.T) {
	mock := inference.NewMockClient(aiForm)
	o := New(WithClient(mock), WithDefaultModel("gpt-test"))

	res, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText(report))
	require.NoError(t, err)
	assert.Equal(t, TierGeneral, res.Tier)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-test", reqs[0].Model)
	assert.Equal(t, inference.GeneralSystem, reqs[0].System)
	assert.Contains(t, reqs[0].Prompt, "Riverside Lot")

	// AI output goes through the shared enrichment pass
	f, ok := res.Form.Pages[0].Field("site_name")
	require.True(t, ok)
	required, _ := f.Attr(schema.PropRequired)
	assert.Equal(t, true, required)
	d, ok := res.Form.Pages[0].Field("visit_date")
	require.True(t, ok)
	assert.Equal(t, schema.PrepopulateDateToday, d.String(schema.PropPrepopulateType))
}

func TestInstructionsReachPrompt(t *testing.T) {
	mock := inference.NewMockClient(aiForm)
	o := New(WithClient(mock))
	req := pdfRequest()
	req.Instructions = "Group fields by room."

	_, err := o.ExtractFrom(context.Background(), req, pdfText(report))
	require.NoError(t, err)
	require.Len(t, mock.Requests(), 1)
	assert.Contains(t, mock.Requests()[0].Prompt, "Group fields by room.")
}

func TestAIFallsThrough(t *testing.T) {
	tests := []struct {
		name   string
		client inference.Client
	}{
		{"malformed json", inference.NewMockClient("I could not find a form in this document.")},
		{"validation failure", inference.NewMockClient(aiFormEmptySelect)},
		{"no pages", inference.NewMockClient(`{"name":"xf:form","props":{"children":[]}}`)},
		{"client error", &inference.MockClient{Err: errors.New("service unavailable")}},
		{"panic", inference.ClientFunc(func(context.Context, inference.Request) (string, error) {
			panic("boom")
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(WithClient(tt.client))
			res, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText(report))
			require.NoError(t, err)

			assert.Equal(t, TierEnhanced, res.Tier)
			assert.Equal(t, []string{TierGeneral}, tiersBy(res, OutcomeFailed))
			assert.True(t, res.Validation.Valid, res.Validation.Errors)
		})
	}
}

func TestFineTunedTier(t *testing.T) {
	mock := inference.NewMockClient(aiForm)
	o := New(WithClient(mock), WithGeneralAI(false))
	req := pdfRequest()
	req.Model = "ft:gpt-4o-mini:acme:forms:abc"

	res, err := o.ExtractFrom(context.Background(), req, pdfText(report))
	require.NoError(t, err)
	assert.Equal(t, TierFineTuned, res.Tier)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, req.Model, reqs[0].Model)
	assert.Equal(t, inference.FineTunedSystem, reqs[0].System)
}

func TestFineTunedFailureSkipsGeneral(t *testing.T) {
	mock := inference.NewMockClient("not json")
	o := New(WithClient(mock))
	req := pdfRequest()
	req.Model = "ft:custom"

	res, err := o.ExtractFrom(context.Background(), req, pdfText(report))
	require.NoError(t, err)
	assert.Equal(t, TierEnhanced, res.Tier)
	assert.Equal(t, []string{TierFineTuned}, tiersBy(res, OutcomeFailed))
	assert.Contains(t, tiersBy(res, OutcomeSkipped), TierGeneral)
	assert.Len(t, mock.Requests(), 1)
}

func TestGeneralTierSkipped(t *testing.T) {
	tests := []struct {
		name  string
		model string
		opts  []Option
	}{
		{"basic model", "basic", nil},
		{"disabled", "", []Option{WithGeneralAI(false)}},
		{"no default model", "", []Option{WithDefaultModel("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := inference.NewMockClient(aiForm)
			o := New(append([]Option{WithClient(mock)}, tt.opts...)...)
			req := pdfRequest()
			req.Model = tt.model

			res, err := o.ExtractFrom(context.Background(), req, pdfText(report))
			require.NoError(t, err)
			assert.Equal(t, TierEnhanced, res.Tier)
			assert.Empty(t, mock.Requests())
		})
	}
}

func TestBlankTextSkipsAI(t *testing.T) {
	mock := inference.NewMockClient(aiForm)
	o := New(WithClient(mock))

	res, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText("  \n "))
	require.NoError(t, err)
	assert.Equal(t, TierDefault, res.Tier)
	assert.Equal(t, "report", res.Form.Pages[0].Children[0].(*schema.Field).Default)
	assert.Empty(t, mock.Requests())
}

func TestStructureTier(t *testing.T) {
	x := &document.Extraction{
		Kind:  document.KindDOCX,
		Pages: []document.PageText{{Number: 1, Text: "Full Name: ________\nEmail Address: ________"}},
	}
	req := Request{Document: &document.Document{Name: "intake.docx", Kind: document.KindDOCX}}

	res, err := New().ExtractFrom(context.Background(), req, x)
	require.NoError(t, err)
	assert.Equal(t, TierStructure, res.Tier)
	assert.True(t, res.Validation.Valid, res.Validation.Errors)
	assert.Equal(t, 2, res.Form.FieldCount())
	assert.Equal(t, []string{TierEnhanced, TierBasic}, tiersBy(res, OutcomeSkipped)[2:])
}

func TestAcroFormFieldsOnPDF(t *testing.T) {
	x := &document.Extraction{
		Kind:       document.KindPDF,
		Pages:      []document.PageText{{Number: 1}},
		FormFields: []document.AcroField{{Name: "applicant.name", Type: document.AcroText}},
	}
	res, err := New().ExtractFrom(context.Background(), pdfRequest(), x)
	require.NoError(t, err)
	assert.Equal(t, TierStructure, res.Tier)
}

func TestProgressRecordsWinningTier(t *testing.T) {
	log := progress.NewLog()
	o := New(WithNotifier(log), WithClient(inference.NewMockClient("nope")))

	_, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText(report))
	require.NoError(t, err)

	events := log.Events("s1")
	require.NotEmpty(t, events)
	assert.Equal(t, progress.EventExtracted, events[0].Type)

	last := events[len(events)-1]
	assert.Equal(t, progress.EventCompleted, last.Type)
	assert.Equal(t, TierEnhanced, last.Data["tier"])

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, progress.EventTierFailed)
	assert.Contains(t, types, progress.EventTierSkipped)
	assert.Contains(t, types, progress.EventTierStart)
}

func TestUnreadableDocument(t *testing.T) {
	log := progress.NewLog()
	o := New(WithNotifier(log))

	tests := []struct {
		name string
		doc  *document.Document
		want error
	}{
		{"garbage pdf", &document.Document{Name: "x.pdf", Kind: document.KindPDF, Data: []byte("not a pdf")}, document.ErrUnreadable},
		{"nil document", nil, document.ErrUnreadable},
		{"unsupported kind", &document.Document{Name: "x.txt", Kind: "txt"}, document.ErrUnsupportedKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := o.Extract(context.Background(), Request{Document: tt.doc, SessionID: tt.name})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)

			events := log.Events(tt.name)
			require.NotEmpty(t, events)
			assert.Equal(t, progress.EventError, events[len(events)-1].Type)
		})
	}
}

func TestSessionIDGenerated(t *testing.T) {
	o := New(WithIDGenerator(func() string { return "generated" }))
	req := pdfRequest()
	req.SessionID = ""

	res, err := o.ExtractFrom(context.Background(), req, pdfText(report))
	require.NoError(t, err)
	assert.Equal(t, "generated", res.SessionID)

	res, err = New().ExtractFrom(context.Background(), req, pdfText(report))
	require.NoError(t, err)
	assert.Len(t, res.SessionID, 36)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ExtractFrom(ctx, pdfRequest(), pdfText(report))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractAll(t *testing.T) {
	var calls atomic.Int32
	client := inference.ClientFunc(func(context.Context, inference.Request) (string, error) {
		calls.Add(1)
		return aiForm, nil
	})
	o := New(WithClient(client), WithConcurrency(2))

	reqs := []Request{
		{Document: &document.Document{Name: "a.doc", Kind: document.KindDOC}, SessionID: "a"},
		{Document: &document.Document{Name: "b.pdf", Kind: document.KindPDF, Data: []byte("junk")}, SessionID: "b"},
		{Document: &document.Document{Name: "c.xls", Kind: document.KindXLS}, SessionID: "c"},
	}
	out, err := o.ExtractAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i, id := range []string{"a", "", "c"} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			if id == "" {
				assert.ErrorIs(t, out[i].Err, document.ErrUnreadable)
				assert.Nil(t, out[i].Result)
				return
			}
			require.NoError(t, out[i].Err)
			assert.Equal(t, id, out[i].Result.SessionID)
			assert.Equal(t, TierDefault, out[i].Result.Tier)
		})
	}
	assert.Zero(t, calls.Load())
}
