package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/parksync/internal/mapper"
)

// RecordParser turns one raw remote record into canonical fields. The
// structured and AI strategies differ only here; fingerprinting and
// upsert are shared downstream.
type RecordParser interface {
	Parse(ctx context.Context, raw map[string]any) (map[string]any, error)
}

// MappingParser is the structured strategy: apply a confirmed field
// mapping to the record's JSON fields.
type MappingParser struct {
	Mapping map[string]string
	Targets []mapper.TargetField
}

func (p *MappingParser) Parse(_ context.Context, raw map[string]any) (map[string]any, error) {
	return mapper.ApplyMapping(raw, p.Mapping, p.Targets)
}

// AIParser is the alternate strategy: extract canonical fields from the
// record's rendered HTML with a JSON-mode completion, then coerce them
// through the same type rules as the structured path.
type AIParser struct {
	Client  *openai.Client
	Model   string
	Targets []mapper.TargetField
}

func (p *AIParser) Parse(ctx context.Context, raw map[string]any) (map[string]any, error) {
	text := renderedText(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("record has no rendered content to extract from")
	}

	var keys []string
	for _, t := range p.Targets {
		keys = append(keys, fmt.Sprintf("%s (%s)", t.Key, t.Type))
	}

	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Extract listing fields from the page text. Respond with a JSON object " +
					"using exactly these keys, omitting any you cannot find: " + strings.Join(keys, ", "),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extracted); err != nil {
		return nil, fmt.Errorf("decoding extraction output: %w", err)
	}

	out := make(map[string]any)
	for _, target := range p.Targets {
		raw, ok := extracted[target.Key]
		if !ok {
			continue
		}
		if value, ok := mapper.Coerce(raw, target.Type); ok {
			out[target.Key] = value
		}
	}
	for _, target := range p.Targets {
		if target.Required {
			if _, ok := out[target.Key]; !ok {
				return nil, fmt.Errorf("required field %q is absent after extraction", target.Key)
			}
		}
	}
	return out, nil
}

// renderedText gathers the record's title and rendered content and strips
// the markup.
func renderedText(raw map[string]any) string {
	var parts []string
	for _, path := range []string{"title.rendered", "content.rendered", "excerpt.rendered"} {
		if v, ok := mapper.Extract(raw, path); ok {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, StripHTML(s))
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// StripHTML reduces an HTML fragment to its text content. Parse errors
// degrade to the raw input rather than failing the record.
func StripHTML(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "p", "br", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	lines := strings.Split(b.String(), "\n")
	var cleaned []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
