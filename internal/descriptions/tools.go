package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolExtractFile     = "form_extract_file"
	ToolExtractBatch    = "form_extract_batch"
	ToolValidateSchema  = "form_validate_schema"
	ToolSearchDirectory = "form_search_directory"
	ToolProgress        = "form_progress"
	ToolServerInfo      = "form_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	ExtractFileDescription = `Turn an inspection document into an xf form schema.

**When to use:** You have a PDF (or DOCX/XLSX) inspection report or blank form and need a renderable form definition with pages, typed fields, options and conditional logic.

**How it works:** The document runs through a waterfall of strategies. A fine-tuned model is tried when one is named ("ft:..."), then a general model when AI is configured, then keyword heuristics with full and reduced catalogs, then layout rules for DOCX/XLSX and AcroForm fields. A minimal four-field form is the guaranteed fallback. The response names the tier that produced the schema and lists every attempt.

**Examples:**
• "Extract a form from reports/site-inspection-0314.pdf"
• "Use model ft:gpt-4o-mini:acme:forms:abc on intake.pdf"
• "Extract with instructions: put every BMP item on its own page"

**Best practices:** Pass a session_id when you want to poll form_progress while the extraction runs; use model "basic" to skip AI entirely.`

	ExtractBatchDescription = `Extract form schemas from several documents concurrently.

**When to use:** Converting a folder of inspection templates in one call.

**Examples:**
• "Extract forms from every PDF form_search_directory found under templates/"

**Best practices:** Each document gets its own session id and result; one unreadable file does not fail the batch.`

	ValidateSchemaDescription = `Check an xf form schema against the structural rules.

**When to use:** Before handing a schema to the form renderer, after editing one by hand, or to check output from another tool.

**Rules checked:** the root is xf:form with at least one page; every page is xf:page with a name and label; every field has a known xf: type, a name and a label (xf:hidden needs no label); selects carry options; groups carry a label. All violations are reported, not only the first.

**Examples:**
• "Validate schemas/site-inspection.json"
• "Validate this JSON: {\"name\":\"xf:form\",...}"`

	SearchDirectoryDescription = `Find documents that can be turned into forms.

**When to use:** Discovering PDF, DOC, DOCX, XLS and XLSX files under the configured directory before extraction.

**Examples:**
• "List documents in templates/"
• "Find files matching 'stormwater 2024'"

**Best practices:** Matching is fuzzy and case-insensitive; every query word must appear in the file name.`

	ProgressDescription = `Read the progress events of an extraction session.

**When to use:** Following a long extraction, or finding out which tier produced a schema and why earlier tiers were skipped or failed.

**Events:** started, text_extracted, tier_start, tier_skipped, tier_failed, completed, error.

**Best practices:** Set cleanup=true once you no longer need the history.`

	ServerInfoDescription = `Get server status, configured AI model, available tools and usage guidance.

**When to use:** Starting work with the server or checking whether AI extraction is available.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFile:     ExtractFileDescription,
	ToolExtractBatch:    ExtractBatchDescription,
	ToolValidateSchema:  ValidateSchemaDescription,
	ToolSearchDirectory: SearchDirectoryDescription,
	ToolProgress:        ProgressDescription,
	ToolServerInfo:      ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
