package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	if format == "slack" {
		return json.Marshal(slackPayload(event))
	}
	return json.Marshal(event)
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(event AlertEvent) slackMessage {
	field := func(label, value string) slackText {
		return slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s:* %s", label, value)}
	}
	return slackMessage{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("meshgate: %s band", event.Band)},
		},
		{
			Type: "section",
			Fields: []slackText{
				field("Node", event.NodeID),
				field("Alg", event.Alg),
				field("Route score", fmt.Sprintf("%.4f", event.RouteScore)),
				field("Length", fmt.Sprintf("%d", event.MessageLength)),
			},
		},
	}}
}
