package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"news_digest/internal/domain"
)

const (
	promptHeader = "Please provide a concise summary of the following news articles " +
		"from the last couple of days in the form of one meaningful story about " +
		"what happened. The articles are following: "
	promptFooter = "### Summary:"

	voiceCaption = "Here's your daily news summary!"
)

// BuildPrompt assembles the summarization prompt from the relevant articles.
func BuildPrompt(articles []domain.Article) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	for _, a := range articles {
		fmt.Fprintf(&sb, "**Title:** %s\n**Text:** %s\n\n", a.Title, a.Text)
	}
	sb.WriteString(promptFooter)
	return sb.String()
}

// DigestService runs the daily job: ingest, summarize, synthesize, deliver.
type DigestService struct {
	ingestor    Ingestor
	subscribers SubscriberStore
	summarizer  Summarizer
	speech      SpeechSynthesizer
	sender      VoiceSender
	voiceFile   string
	logger      *slog.Logger
}

func NewDigestService(
	ingestor Ingestor,
	subscribers SubscriberStore,
	summarizer Summarizer,
	speech SpeechSynthesizer,
	sender VoiceSender,
	voiceFile string,
	logger *slog.Logger,
) *DigestService {
	return &DigestService{
		ingestor:    ingestor,
		subscribers: subscribers,
		summarizer:  summarizer,
		speech:      speech,
		sender:      sender,
		voiceFile:   voiceFile,
		logger:      logger,
	}
}

// Run executes one digest cycle for the given wall-clock time. Ingest,
// summarization, synthesis, and subscriber listing failures abort the run so
// a digest is never silently produced from nothing; individual delivery
// failures are logged and skipped.
func (s *DigestService) Run(ctx context.Context, now time.Time) error {
	articles, _, err := s.ingestor.Ingest(ctx, domain.Day(now))
	if err != nil {
		return fmt.Errorf("ingest articles: %w", err)
	}

	if len(articles) == 0 {
		s.logger.Info("no relevant articles, skipping digest")
		return nil
	}

	summary, err := s.summarizer.Summarize(ctx, BuildPrompt(articles))
	if err != nil {
		return fmt.Errorf("summarize digest: %w", err)
	}

	voice, err := s.speech.Synthesize(ctx, summary)
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}

	// The latest voice file backs the bot's /resend command.
	if s.voiceFile != "" {
		if err := os.WriteFile(s.voiceFile, voice, 0o644); err != nil {
			return fmt.Errorf("write voice file: %w", err)
		}
	}

	subs, err := s.subscribers.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subs) == 0 {
		s.logger.Info("no subscribers to deliver to")
		return nil
	}

	delivered := 0
	for _, sub := range subs {
		if err := s.sender.SendVoice(ctx, sub.ChatID, voice, voiceCaption); err != nil {
			s.logger.Error("send digest", "chat_id", sub.ChatID, "error", err)
			continue
		}
		delivered++
	}

	s.logger.Info("digest delivered",
		"articles", len(articles),
		"subscribers", len(subs),
		"delivered", delivered,
	)

	return nil
}
