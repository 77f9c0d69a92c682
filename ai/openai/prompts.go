package openai

import "fmt"

const summarySchema = `{
  "type": "object",
  "properties": {
    "summary": {
      "type": "string"
    }
  },
  "required": ["summary"],
  "additionalProperties": false
}`

const summaryPromptTemplate = `Summarize the text you are given for a reader browsing search results, and return the summary as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The summary must be between %d and %d words long.
- Write plain prose in the third person. No lists, no markdown.
- Use only facts stated in the text. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildSummaryPrompt returns the system prompt for the requested length bounds.
func buildSummaryPrompt(minWords, maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, summarySchema, minWords, maxWords)
}
