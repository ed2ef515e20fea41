package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	"google.golang.org/api/option"

	"crosspost-backend/internal/models"
)

const maxTranscriptContext = 1500

// Composer produces the default textual content for a post. With a Gemini
// key configured it drafts a caption from the video metadata plus a
// transcript excerpt; without one (or on any model failure) it falls back to
// a deterministic template, so composing never blocks publishing.
type Composer struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	transcripts *ytapi.YouTubeTranscriptApi
}

func NewComposer(ctx context.Context, geminiAPIKey string) (*Composer, error) {
	c := &Composer{
		transcripts: ytapi.NewYouTubeTranscriptApi(),
	}
	if geminiAPIKey == "" {
		log.Println("⚠ Composer running without Gemini (template captions only)")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(geminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.7)

	c.client = client
	c.model = model
	return c, nil
}

func (c *Composer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Default is the template caption: title, first line of the description, the
// link and hashtags from the tags.
func (c *Composer) Default(video *models.Video) string {
	var b strings.Builder
	b.WriteString(video.Title)

	if line := firstLine(video.Description); line != "" && line != video.Title {
		b.WriteString("\n\n")
		b.WriteString(line)
	}

	if video.CanonicalURL != "" {
		b.WriteString("\n\n")
		b.WriteString(video.CanonicalURL)
	}

	if tags := hashtags(video.Tags, 5); tags != "" {
		b.WriteString("\n\n")
		b.WriteString(tags)
	}
	return b.String()
}

// Compose drafts a caption with Gemini when available.
func (c *Composer) Compose(ctx context.Context, video *models.Video) string {
	if c.model == nil {
		return c.Default(video)
	}

	prompt := fmt.Sprintf(
		"Write a short social media caption (max 2 sentences, no emojis spam) announcing this video.\nTitle: %s\nDescription: %s",
		video.Title, firstLine(video.Description),
	)
	if excerpt := c.transcriptExcerpt(video.ExternalID); excerpt != "" {
		prompt += "\nTranscript excerpt: " + excerpt
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("Composer: Gemini generation failed, using template: %v", err)
		return c.Default(video)
	}

	caption := extractText(resp)
	if caption == "" {
		return c.Default(video)
	}

	if video.CanonicalURL != "" {
		caption += "\n\n" + video.CanonicalURL
	}
	if tags := hashtags(video.Tags, 5); tags != "" {
		caption += "\n\n" + tags
	}
	return caption
}

func (c *Composer) transcriptExcerpt(videoID string) string {
	if videoID == "" {
		return ""
	}
	transcript, err := c.transcripts.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil || len(transcript.Entries) == 0 {
		return ""
	}

	var b strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		if b.Len()+len(text) > maxTranscriptContext {
			break
		}
		b.WriteString(text)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func hashtags(tags []string, max int) string {
	var out []string
	for _, tag := range tags {
		if len(out) == max {
			break
		}
		clean := strings.ReplaceAll(strings.TrimSpace(tag), " ", "")
		if clean == "" {
			continue
		}
		out = append(out, "#"+strings.ToLower(clean))
	}
	return strings.Join(out, " ")
}
