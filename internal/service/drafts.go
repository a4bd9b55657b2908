package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// GenerateInput: форма генерации письма.
type GenerateInput struct {
	Intent    string        `json:"prompt"`
	Tone      models.Tone   `json:"tone"`
	Length    models.Length `json:"length"`
	Recipient string        `json:"recipient_name,omitempty"`
	Sender    string        `json:"sender_name,omitempty"`
	Extras    string        `json:"extras,omitempty"`
}

// Draft - сгенерированное письмо; Text: тело с единственной подписью.
type Draft struct {
	models.EmailDraft
	Text string `json:"text"`
}

// Generate собирает промпт, вызывает генерацию и нормализует подпись.
// Пустое имя отправителя берётся из профиля (без ошибки, если профиль недоступен).
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Draft, error) {
	const op = "service.drafts.Generate"

	if strings.TrimSpace(in.Intent) == "" {
		return Draft{}, fmt.Errorf("%s: %w", op, ErrEmptyPrompt)
	}
	if in.Tone == "" {
		in.Tone = models.ToneFormal
	}
	if in.Length == "" {
		in.Length = models.LengthShort
	}
	if !in.Tone.Valid() {
		return Draft{}, fmt.Errorf("%s: %w", op, ErrInvalidTone)
	}
	if !in.Length.Valid() {
		return Draft{}, fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	sender := strings.TrimSpace(in.Sender)
	if sender == "" {
		if p, err := s.api.Profile(ctx); err == nil {
			sender = p.Name
		} else {
			log.From(ctx).Debug("sender_from_profile_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	prompt := buildPrompt(in, sender)
	if n := utf8.RuneCountInString(prompt); n < promptMin || n > promptMax {
		return Draft{}, fmt.Errorf("%s: %w", op, ErrInvalidPrompt)
	}

	res, err := s.api.GenerateEmail(ctx, models.GenerateRequest{Prompt: prompt, Tone: in.Tone, Length: in.Length})
	if err != nil {
		return Draft{}, fmt.Errorf("%s: %w", op, err)
	}

	text := enforceSignature(strings.TrimSpace(res.GeneratedEmail), signatureBlock(in.Tone, sender, in.Extras))

	return Draft{EmailDraft: res, Text: text}, nil
}

// History возвращает историю писем; query фильтрует без учёта регистра
// по промпту, тексту, тону и длине.
func (s *Service) History(ctx context.Context, query string) ([]models.EmailDraft, error) {
	const op = "service.drafts.History"

	list, err := s.api.Emails(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []models.EmailDraft{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list, nil
	}

	out := make([]models.EmailDraft, 0, len(list))
	for _, e := range list {
		if strings.Contains(strings.ToLower(e.Prompt), q) ||
			strings.Contains(strings.ToLower(e.GeneratedEmail), q) ||
			strings.Contains(strings.ToLower(string(e.Tone)), q) ||
			strings.Contains(strings.ToLower(string(e.Length)), q) {
			out = append(out, e)
		}
	}

	return out, nil
}
