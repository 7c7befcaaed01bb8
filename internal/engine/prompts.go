package engine

import (
	"fmt"
	"strings"

	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
)

const welcomeBody = `🏛️ *Welcome to FCT Public Square*

Report civic issues and track their resolution.

*Here's how it works:*
1️⃣ Describe your issue in detail
2️⃣ Provide the location
3️⃣ Pick a category
4️⃣ Get a tracking number

To get started, describe the issue you'd like to report.`

const locationPrompt = `📍 *Great! Now please provide the location.*

Where exactly is this issue occurring?

*Examples:*
• "Kubwa Phase 2, near Unity Bank"
• "Airport Road, opposite Shoprite"
• "Gwarinpa Estate, Block 5"

Please be as specific as possible so response teams can find the issue quickly.`

const categoryPromptBody = `🏷️ *Please select the category that best describes your issue:*`

const categoryButtonLabel = "Select Category"

const needMoreDetailPrompt = `❓ *I need more details to help you report this issue.*

Please describe the problem in detail. Include:

🔍 *What* is the problem?
📍 *Where* is it located?
⏰ *When* did you notice it?

*Example:*
"Water pipe burst on Kubwa Main Road near First Bank. Water has been flowing for 2 days and the road is flooded."

Please try describing your issue again:`

const invalidConfirmationPrompt = `❓ Please select one of the options:

✅ *Yes, Submit* - to create your issue report
❌ *No, Start Over* - to start again`

const creationFailedPrompt = `❌ *Error creating your issue report.*

Please try again by selecting *Yes, Submit*, or visit our website directly. If the problem persists, contact support.`

const processingFailedPrompt = `⚠️ Something went wrong while handling your message. Please try again in a moment.`

func welcomeButtons() []domain.Button {
	return []domain.Button{
		{ID: "report_new", Title: "Report New Issue"},
		{ID: "see_examples", Title: "See Examples"},
		{ID: "track_issue", Title: "Track Existing Issue"},
	}
}

func confirmButtons() []domain.Button {
	return []domain.Button{
		{ID: domain.ReplyConfirmYes, Title: "✅ Yes, Submit"},
		{ID: domain.ReplyConfirmNo, Title: "❌ No, Start Over"},
	}
}

// categorySections renders the category menu, grouping adjacent rules that
// share a section heading. Rule order is preserved.
func categorySections(rules []config.CategoryRule) []domain.ListSection {
	var sections []domain.ListSection
	for _, rule := range rules {
		row := domain.ListRow{ID: rule.Slug, Title: rule.Name, Description: rule.Description}
		if n := len(sections); n > 0 && sections[n-1].Title == rule.Section {
			sections[n-1].Rows = append(sections[n-1].Rows, row)
			continue
		}
		sections = append(sections, domain.ListSection{Title: rule.Section, Rows: []domain.ListRow{row}})
	}
	return sections
}

func confirmationSummary(draft domain.Draft, categoryName string) string {
	return fmt.Sprintf(`📋 *Please confirm your issue report:*

*Issue Description:*
%s

*Location:*
%s

*Category:*
%s

Is this information correct?`, draft.Description, draft.Location, categoryName)
}

func successMessage(issue *domain.Issue, categoryName, agencyName, frontendURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *Issue Successfully Reported!*\n\n")
	fmt.Fprintf(&sb, "*Issue ID:* #%s\n", issue.Reference)
	fmt.Fprintf(&sb, "*Category:* %s\n", categoryName)
	fmt.Fprintf(&sb, "*Location:* %s\n", issue.Location)
	if agencyName != "" {
		fmt.Fprintf(&sb, "*Assigned to:* %s\n", agencyName)
	} else {
		sb.WriteString("*Status:* Under review\n")
	}
	if frontendURL != "" {
		fmt.Fprintf(&sb, "\n🔗 *Track online:* %s/issues/%s\n", strings.TrimRight(frontendURL, "/"), issue.ID)
	}
	sb.WriteString("\nThank you for helping improve FCT! 🏛️\n\n")
	sb.WriteString(`_Reply *"new"* to report another issue._`)
	return sb.String()
}
