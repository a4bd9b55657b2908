package models

// Tone: тон генерируемого письма.
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneInformal     Tone = "informal"
	ToneNeutral      Tone = "neutral"
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
)

// Valid сообщает, входит ли тон в поддерживаемый бэкендом набор.
func (t Tone) Valid() bool {
	switch t {
	case ToneFormal, ToneInformal, ToneNeutral, ToneFriendly, ToneProfessional:
		return true
	}

	return false
}

// Length: желаемая длина письма.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}

	return false
}

type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Tone   Tone   `json:"tone"`
	Length Length `json:"length"`
}

// EmailDraft: сгенерированное письмо из истории пользователя.
type EmailDraft struct {
	ID             int64  `json:"id"`
	Prompt         string `json:"prompt"`
	Tone           Tone   `json:"tone"`
	Length         Length `json:"length"`
	GeneratedEmail string `json:"generated_email"`
	CreatedAt      string `json:"created_at"`
}
