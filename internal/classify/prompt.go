package classify

import (
	"fmt"
	"strings"

	"modtriage/internal/model"
	"modtriage/internal/util"
)

// systemPrompt frames the bounded decision for the model.
const systemPrompt = `You are a mod librarian for a Sims 4 mod collection tracked in a knowledge base. You assign each mod exactly one priority and one folder. You never invent information not present in the mod's page text.`

// formatReminder is appended verbatim to every prompt and, on a retry,
// reinforced together with an excerpt of the rejected output.
const formatReminder = `Answer with exactly three lines in this format and nothing else:
Priority: <integer 1-5>
Folder: <one folder name from the list above>
Notes: <one sentence justifying the priority, or leave empty after the colon for priority 1-2>`

// BuildPrompt assembles the bounded prompt context: rubric, record
// metadata, and page text capped at maxChars. Truncation keeps the head of
// the text, where mod pages put the feature description.
func BuildPrompt(record model.ModRecord, content model.ExtractedContent, maxChars int) string {
	var sb strings.Builder

	sb.WriteString("Classify this Sims 4 mod.\n\n")
	sb.WriteString("Priority scale (1 = game breaks without it, 5 = purely optional):\n")
	for p := model.MinPriority; p <= model.MaxPriority; p++ {
		fmt.Fprintf(&sb, "  %d -> default folder %q\n", p, model.FolderForPriority(p))
	}

	sb.WriteString("\nAllowed folders:\n")
	for _, folder := range model.Folders {
		sb.WriteString("  - ")
		sb.WriteString(folder)
		sb.WriteByte('\n')
	}

	sb.WriteString("\nMod:\n")
	fmt.Fprintf(&sb, "  Name: %s\n", record.Name)
	if record.Creator != "" {
		fmt.Fprintf(&sb, "  Creator: %s\n", record.Creator)
	}

	text := content.Text
	if maxChars > 0 {
		text = util.TruncateString(text, maxChars)
	}
	sb.WriteString("\nPage text:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(formatReminder)

	return sb.String()
}

// buildRetryPrompt augments the prompt with an excerpt of the rejected
// output and a stricter reminder. Used for exactly one re-invocation.
func buildRetryPrompt(original, invalidOutput, reason string) string {
	excerpt := util.TruncateString(invalidOutput, 400)

	var sb strings.Builder
	sb.WriteString(original)
	sb.WriteString("\n\nYour previous answer could not be used (")
	sb.WriteString(reason)
	sb.WriteString("). It began:\n")
	sb.WriteString(excerpt)
	sb.WriteString("\n\nRespond again. ")
	sb.WriteString(formatReminder)
	return sb.String()
}
