package descriptions

// Tool descriptions shown to MCP clients.

const (
	ExtractDescription = `Extract the 5% shareholder table from an IDX/KSEI ownership disclosure PDF and group it by owner.

**When to use:** A user asks who holds more than 5% of an issuer, or which large holders bought or sold, from a "pemegang saham di atas 5%" report.

**Output:** One block per (ticker, owner) with every sekuritas account the owner holds through. Owners with several accounts get a TOTAL block with the summed shares and the owner's percentage of the issuer.

**Parameters:**
- path: PDF under the documents directory (relative or absolute)
- only_changes: report only owners whose holding moved (default true)
- format: "text" (default) or "json"

**Limits:** Needs a text layer. Scanned reports return guidance instead of rows.`

	LatestDescription = `Extract holdings from the most recently modified PDF in a directory.

**When to use:** The user drops the daily report into the documents folder and asks "what changed today".

**Parameters:**
- directory: directory to scan (defaults to the documents directory)

Only changed holdings are reported.`

	ValidateDescription = `Check that a file is a readable, text-based PDF before extracting from it.

Reports page count and whether the document is encrypted. Invalid files come back with the reason instead of an error.`

	SearchDescription = `List disclosure PDFs in the documents directory, newest first.

**Parameters:**
- query: optional words matched against file names (e.g. "2024 06")`
)
