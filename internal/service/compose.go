package service

import (
	"regexp"
	"strings"

	"github.com/pribylovaa/draftmail/internal/models"
)

// signOffs: завершающая фраза подписи по тону письма.
var signOffs = map[models.Tone]string{
	models.ToneFormal:       "Sincerely,",
	models.ToneProfessional: "Best regards,",
	models.ToneNeutral:      "Kind regards,",
	models.ToneFriendly:     "Cheers,",
	models.ToneInformal:     "Take care,",
}

func signOff(t models.Tone) string {
	if s, ok := signOffs[t]; ok {
		return s
	}
	return signOffs[models.ToneFormal]
}

var (
	reIDLike     = regexp.MustCompile(`(?i)(student|students)?\s*id[:#]?\s*([A-Za-z0-9-]+)`)
	reNumberLike = regexp.MustCompile(`(?i)(my\s*)?(phone|mobile|number)[:#]?\s*([+\d][\d\s-]+)`)
	reOrgLike    = regexp.MustCompile(`(?i)(organization|organisation|company|university|school|institute)\s*(is|:)?\s*(.+)$`)
	reSpaces     = regexp.MustCompile(`\s+`)

	// reTrailingSig - подпись, которую модель добавила сама: любая из
	// известных завершающих фраз и всё после неё.
	reTrailingSig = func() *regexp.Regexp {
		alts := make([]string, 0, len(signOffs))
		for _, tone := range []models.Tone{
			models.ToneFormal, models.ToneProfessional, models.ToneNeutral,
			models.ToneFriendly, models.ToneInformal,
		} {
			alts = append(alts, regexp.QuoteMeta(signOffs[tone]))
		}
		return regexp.MustCompile(`(?is)\n\s*(` + strings.Join(alts, "|") + `).*$`)
	}()
)

// normalizeExtras превращает свободный текст «доп. строк подписи» в список
// коротких значений: телефон, организация, идентификатор. Дубликаты удаляются
// с сохранением порядка.
func normalizeExtras(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// «ID 123 from Acme University»: две строки.
		if idx := strings.Index(strings.ToLower(line), " from "); idx > -1 {
			left := strings.TrimSpace(line[:idx])
			right := strings.TrimSpace(line[idx+len(" from "):])
			if m := reIDLike.FindStringSubmatch(left); m != nil && m[2] != "" {
				out = append(out, m[2])
			} else if left != "" {
				out = append(out, left)
			}
			if right != "" {
				out = append(out, right)
			}
			continue
		}

		if m := reNumberLike.FindStringSubmatch(line); m != nil && m[3] != "" {
			out = append(out, strings.TrimSpace(reSpaces.ReplaceAllString(m[3], " ")))
			continue
		}

		if m := reOrgLike.FindStringSubmatch(line); m != nil && m[3] != "" {
			out = append(out, strings.TrimSpace(m[3]))
			continue
		}

		if m := reIDLike.FindStringSubmatch(line); m != nil && m[2] != "" {
			out = append(out, strings.TrimSpace(m[2]))
			continue
		}

		out = append(out, line)
	}

	seen := make(map[string]struct{}, len(out))
	uniq := out[:0]
	for _, s := range out {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}

	return uniq
}

// signatureBlock - подпись письма: завершающая фраза, имя, доп. строки.
func signatureBlock(tone models.Tone, sender, extras string) string {
	lines := []string{signOff(tone)}
	if sender = strings.TrimSpace(sender); sender != "" {
		lines = append(lines, sender)
	}
	lines = append(lines, normalizeExtras(extras)...)

	return strings.Join(lines, "\n")
}

// buildPrompt собирает промпт модели из намерения пользователя,
// адресата, тона/длины и требуемой подписи.
func buildPrompt(in GenerateInput, sender string) string {
	var parts []string

	if r := strings.TrimSpace(in.Recipient); r != "" {
		parts = append(parts, "This email is addressed to: "+r+".")
	}
	parts = append(parts,
		"The purpose/intent is: "+strings.TrimSpace(in.Intent)+".",
		"Write a "+string(in.Tone)+" "+string(in.Length)+" email. Keep it clear and professional.",
		"After the body, add EXACTLY the following signature block, with a blank line before it. "+
			"Do NOT add bullets, quotes, or backticks. Do NOT add any other signature. "+
			"Do NOT duplicate the sender name. Use the block as-is:",
		signatureBlock(in.Tone, sender, in.Extras),
	)

	return strings.Join(parts, "\n")
}

// enforceSignature удаляет подпись, добавленную моделью, и ставит ровно одну
// требуемую.
func enforceSignature(text, signature string) string {
	cleaned := strings.TrimRight(reTrailingSig.ReplaceAllString(strings.TrimRight(text, " \t\r\n"), ""), " \t\r\n")
	return cleaned + "\n\n" + strings.TrimSpace(signature)
}
