package devserver

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/tools"
)

var (
	emailLike = regexp.MustCompile(`[^\s<>()"',;]+@[^\s<>()"',;]+`)

	careTerms = []string{
		"dementia", "alzheimer's", "memory care", "assisted living", "nursing home",
		"home care", "caregiver", "caregiving", "respite", "hospice", "medicare",
		"medicaid", "power of attorney", "fall", "stroke", "parkinson's",
	}
)

// Replies of the scripted assistant
const (
	greetingReply     = "Thanks for stopping by! Tell me a little about who you care for, or share your email to join the waitlist."
	subscribedReply   = "You're on the waitlist. We'll be in touch soon."
	badEmailReply     = "That email address doesn't look quite right. Could you double-check it?"
	careReply         = "Thank you for sharing that. Caring for someone is a lot to carry, and you don't have to figure it out alone."
	joinWaitlistReply = "If you'd like early access, just leave your email address here."
)

// ScriptedAssistant is a Responder that asks for the built-in tools when a
// message contains an email address or care vocabulary
type ScriptedAssistant struct{}

// Plan implements Responder
func (ScriptedAssistant) Plan(userText string) ([]core.ToolCall, string) {
	var calls []core.ToolCall

	if email := strings.TrimRight(emailLike.FindString(userText), ".!?"); email != "" {
		calls = append(calls, toolCall(tools.ValidateEmailName, tools.ValidateEmailInput{EmailAddress: email}))
	}
	if terms := findCareTerms(userText); len(terms) > 0 {
		calls = append(calls,
			toolCall(tools.HighlightCareTermsName, tools.HighlightCareTermsInput{CareTerms: terms}),
			toolCall(tools.RecommendArticlesName, tools.RecommendArticlesInput{CareSituation: userText}),
		)
	}

	if len(calls) == 0 {
		return nil, greetingReply
	}
	return calls, ""
}

// Finish implements Responder
func (ScriptedAssistant) Finish(userText string, calls []core.ToolCall, outputs []core.ToolOutput) string {
	results := make(map[string]string, len(outputs))
	for _, out := range outputs {
		results[out.ToolCallID] = out.Output
	}

	var parts []string
	talkedCare := false
	for _, call := range calls {
		switch call.FunctionName() {
		case tools.ValidateEmailName:
			if results[call.ID] == tools.OutputTrue {
				parts = append(parts, subscribedReply)
			} else {
				parts = append(parts, badEmailReply)
			}
		case tools.HighlightCareTermsName, tools.RecommendArticlesName:
			if !talkedCare {
				parts = append(parts, careReply)
				talkedCare = true
			}
		}
	}
	if talkedCare && emailLike.FindString(userText) == "" {
		parts = append(parts, joinWaitlistReply)
	}
	return strings.Join(parts, " ")
}

// findCareTerms returns the care terms in text, spelled as they appear there
func findCareTerms(text string) []string {
	var found []string
	for _, term := range careTerms {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if match := re.FindString(text); match != "" {
			found = append(found, match)
		}
	}
	return found
}

func toolCall(name string, args any) core.ToolCall {
	data, _ := json.Marshal(args)
	return core.ToolCall{
		ID:       newID("call"),
		Type:     core.ToolCallTypeFunction,
		Function: core.FunctionCall{Name: name, Arguments: string(data)},
	}
}
