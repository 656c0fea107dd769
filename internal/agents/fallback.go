package agents

import (
	"fmt"

	"github.com/sells-group/business-analyst/internal/frame"
)

// FallbackPrompt asks a single model for the whole analysis as one JSON
// object with keys summary, data_issues, trends and answer.
func FallbackPrompt(fc frame.FallbackContext, question string) string {
	return fmt.Sprintf(`You are a senior data analyst. You MUST analyze only the provided DATA CONTEXT and USER QUESTION.
Return ONLY a single valid JSON object (no markdown, no explanation) that exactly matches this schema:

{
  "summary": "<short paragraph (string)>",
  "data_issues": ["<issue 1>", "<issue 2>", ...],
  "trends": ["<trend 1>", "<trend 2>", ...],
  "answer": "<direct answer to the user's question (string)>"
}

Do NOT include any other keys. Do NOT include markdown, bullet characters, asterisks, or additional commentary.

### DATA CONTEXT (JSON)
DATA_HEAD (first %d rows):
%s

SUMMARY_STATS:
%s

COLUMNS:
%s

USER QUESTION:
%s

TASK (be precise):
1) Using ONLY the DATA CONTEXT above, produce a concise "summary".
2) Identify specific "data_issues" (missing values, constant columns, anomalous zeros, type problems).
3) State concrete "trends" observed in the data (use numbers where applicable).
4) Answer the USER QUESTION directly.

Return EXACTLY one JSON object. If you cannot compute some field, return null or empty list for that field.
`, fc.Rows, fc.HeadJSON, fc.DescribeJSON, fc.ColumnsJSON(), question)
}
