package summarize

import (
	"fmt"
	"strings"
)

// BuildClusterSummaryPrompt creates a prompt summarizing the combined text of
// several articles that cover the same story.
func BuildClusterSummaryPrompt(content string, maxWords int) string {
	var prompt strings.Builder

	prompt.WriteString("The articles below were grouped together because they cover the same news story.\n")
	prompt.WriteString("Summarize the story they share with CONCRETE FACTS and SPECIFIC DETAILS.\n\n")

	prompt.WriteString("Include where present:\n")
	prompt.WriteString("- Specific people, companies and organizations\n")
	prompt.WriteString("- Exact numbers, percentages and dates\n")
	prompt.WriteString("- What happened and what changes because of it\n\n")

	prompt.WriteString("Requirements:\n")
	prompt.WriteString(fmt.Sprintf("- At most %d words, plain prose, no headings or bullet points\n", maxWords))
	prompt.WriteString("- Only facts stated in the articles; no speculation\n")
	prompt.WriteString("- Return only the summary text\n\n")

	prompt.WriteString("**Articles:**\n")
	prompt.WriteString(content)
	prompt.WriteString("\n")

	return prompt.String()
}

// CleanSummary strips label prefixes and markdown emphasis that models add
// around a plain summary.
func CleanSummary(response string) string {
	s := strings.TrimSpace(response)
	for _, prefix := range []string{"**Summary:**", "Summary:", "SUMMARY:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(s)
}
