package models

// UserProfile: профиль текущего пользователя (/api/user/profile, /api/auth/me).
type UserProfile struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"` // ISO-8601 без зоны, как отдаёт бэкенд
}

// UpdateProfileRequest: частичное обновление профиля; пустые поля не отправляются.
type UpdateProfileRequest struct {
	Name string `json:"name,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// MessageResponse: типовой ответ {"message": "..."}.
type MessageResponse struct {
	Message string `json:"message"`
}
