package chatbot

import (
	"github.com/pagedeck/integrations/internal/hostapi"
)

// Slack-style structured message rendering.

const maxResults = 5

type message struct {
	ResponseType string  `json:"response_type"`
	Blocks       []block `json:"blocks"`
}

type block struct {
	Type string      `json:"type"`
	Text *textObject `json:"text,omitempty"`
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func sectionBlock(markdown string) block {
	return block{
		Type: "section",
		Text: &textObject{Type: "mrkdwn", Text: markdown},
	}
}

// renderResults turns search hits into a structured message. Result paths are
// linked against the space's published URL when one is available.
func renderResults(query, publishedURL string, results []hostapi.SearchResult) message {
	if len(results) == 0 {
		return message{
			ResponseType: "ephemeral",
			Blocks: []block{
				sectionBlock("No documentation found for *" + query + "*"),
			},
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	blocks := make([]block, 0, len(results)+1)
	blocks = append(blocks, sectionBlock("Results for *"+query+"*"))

	for _, result := range results {
		title := result.Title
		if publishedURL != "" {
			title = "<" + publishedURL + result.Path + "|" + result.Title + ">"
		}

		text := "*" + title + "*"
		if result.Body != "" {
			text += "\n" + result.Body
		}

		blocks = append(blocks, sectionBlock(text))
	}

	return message{
		ResponseType: "in_channel",
		Blocks:       blocks,
	}
}

func helpMessage() message {
	return message{
		ResponseType: "ephemeral",
		Blocks: []block{
			sectionBlock("Ask me about your documentation: `/docs <query>`"),
		},
	}
}
