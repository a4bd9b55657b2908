// Входные/выходные модели REST-контракта бэкенда генерации писем.
package models

// TokenPair: пара токенов текущей сессии.
//
// Описание:
//   - Access: короткоживущий токен, предъявляется в каждом аутентифицированном вызове;
//   - Refresh: долгоживущий токен, предъявляется только эндпойнту обновления.
//
// Инвариант: оба поля выставляются и очищаются только вместе.
type TokenPair struct {
	Access  string
	Refresh string
}

// Empty: в паре нет ни одного токена.
func (p TokenPair) Empty() bool { return p.Access == "" && p.Refresh == "" }

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse: ответ register/login/refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Pair переводит ответ бэкенда в TokenPair.
func (a AuthResponse) Pair() TokenPair {
	return TokenPair{Access: a.AccessToken, Refresh: a.RefreshToken}
}

// VerificationStatus: ответ verify-email, verification-status и resend-verification.
type VerificationStatus struct {
	Verified bool   `json:"verified"`
	Email    string `json:"email,omitempty"`
	Message  string `json:"message,omitempty"`
}
