package notify

import (
	"sort"
	"strings"
	"time"

	"github.com/jobgate/jobgate/service/approval"
	"github.com/viant/toolbox"
)

// message is the card-style envelope posted to the webhook.  The shape
// follows the adaptive-card convention understood by Teams-compatible
// receivers; Slack-style and custom receivers consume the same JSON.
type message struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	ContentType string `json:"contentType"`
	Content     card   `json:"content"`
}

type card struct {
	Schema  string    `json:"$schema"`
	Type    string    `json:"type"`
	Version string    `json:"version"`
	Body    []element `json:"body"`
	Actions []action  `json:"actions,omitempty"`
}

type element struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Size     string `json:"size,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Facts    []fact `json:"facts,omitempty"`
}

type fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type action struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

const (
	cardContentType = "application/vnd.microsoft.card.adaptive"
	cardSchema      = "http://adaptivecards.io/schemas/adaptive-card.json"
)

// buildMessage renders the notification card for a newly created request.
// reviewURL/resourceURL may be empty when no base URL is configured.
func buildMessage(request *approval.Request, reviewURL, resourceURL string) *message {
	minutes := int64(request.TimeRemaining() / time.Minute)
	body := []element{
		{Type: "TextBlock", Size: "Large", Weight: "Bolder", Wrap: true, Text: "Approval required"},
		{Type: "FactSet", Facts: []fact{
			{Title: "Resource", Value: request.Resource},
			{Title: "Requested by", Value: request.RequesterDisplayName},
			{Title: "Request ID", Value: request.ID},
			{Title: "Expires in", Value: toolbox.AsString(minutes) + " minutes"},
		}},
		{Type: "TextBlock", Wrap: true, Text: "**Parameters:**"},
		{Type: "TextBlock", Wrap: true, IsSubtle: true, Text: parameterSummary(request.Parameters)},
	}

	var actions []action
	if reviewURL != "" {
		actions = append(actions, action{Type: "Action.OpenUrl", Title: "Review & Approve", URL: reviewURL})
	}
	if resourceURL != "" {
		actions = append(actions, action{Type: "Action.OpenUrl", Title: "View Resource", URL: resourceURL})
	}

	return &message{
		Type: "message",
		Attachments: []attachment{
			{
				ContentType: cardContentType,
				Content: card{
					Schema:  cardSchema,
					Type:    "AdaptiveCard",
					Version: "1.4",
					Body:    body,
					Actions: actions,
				},
			},
		},
	}
}

// parameterSummary renders the opaque parameter map as a stable, human
// readable bullet list.
func parameterSummary(parameters map[string]interface{}) string {
	if len(parameters) == 0 {
		return "_No parameters_"
	}
	keys := make([]string, 0, len(parameters))
	for k := range parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "- **"+k+"**: "+toolbox.AsString(parameters[k]))
	}
	return strings.Join(lines, "\n")
}
