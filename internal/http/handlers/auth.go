package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"capellawish/internal/auth"
	"capellawish/internal/config"
	"capellawish/internal/domain"
	"capellawish/internal/http/middleware"
	"capellawish/internal/mailer"
)

// AuthHandler serves account registration, login and credential management
type AuthHandler struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	queue  domain.QueueRepository
	config *config.Config
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	users domain.UserRepository,
	tokens domain.TokenRepository,
	queue domain.QueueRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		queue:  queue,
		config: cfg,
		logger: logger,
	}
}

type signupRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AliasName string `json:"alias_name"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "Username is required", h.logger)
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "A valid email address is required", h.logger)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AliasName:    req.AliasName,
		IsActive:     true,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusConflict, "Username or email already in use", h.logger)
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create account", h.logger)
		return
	}

	h.sendVerificationMail(r, user)

	h.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Successfully registered. Please confirm your email address.",
	}, h.logger)
}

// sendVerificationMail queues an email-confirmation message. Delivery
// problems never fail the signup.
func (h *AuthHandler) sendVerificationMail(r *http.Request, user *domain.User) {
	token := auth.NewToken()
	if err := h.tokens.CreateOneTime(r.Context(), domain.TokenPurposeVerifyEmail, token, user.ID); err != nil {
		h.logger.Error("Failed to store verification token", "error", err, "user_id", user.ID)
		return
	}
	msg := mailer.VerificationMessage(user.Email, user.Username, h.config.BaseURL, token, h.config.SupportEmail)
	if err := h.queue.Enqueue(r.Context(), domain.JobTypeSendEmail, msg); err != nil {
		h.logger.Error("Failed to queue verification mail", "error", err, "user_id", user.ID)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials", h.logger)
			return
		}
		h.logger.Error("Failed to look up user", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed", h.logger)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials", h.logger)
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "Account is deactivated", h.logger)
		return
	}

	token := auth.NewToken()
	if err := h.tokens.CreateSession(r.Context(), token, user.ID); err != nil {
		h.logger.Error("Failed to create session", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Login failed", h.logger)
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	}, h.logger)
}

// Logout handles POST /api/v1/auth/logout (authenticated)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if err := h.tokens.DeleteSession(r.Context(), token); err != nil {
		h.logger.Error("Failed to delete session", "error", err)
		respondError(w, http.StatusInternalServerError, "Logout failed", h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out."}, h.logger)
}

// GetAccount handles GET /api/v1/auth/account (authenticated)
func (h *AuthHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	respondJSON(w, http.StatusOK, user, h.logger)
}

type accountUpdateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AliasName *string `json:"alias_name"`
}

// UpdateAccount handles PATCH /api/v1/auth/account (authenticated).
// Only the provided fields change; changing the email address resets
// verification and triggers a new confirmation mail.
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req accountUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	emailChanged := false
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.Contains(email, "@") {
			respondError(w, http.StatusBadRequest, "A valid email address is required", h.logger)
			return
		}
		if email != user.Email {
			user.Email = email
			user.EmailVerified = false
			emailChanged = true
		}
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.AliasName != nil {
		user.AliasName = *req.AliasName
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			respondError(w, http.StatusConflict, "Email already in use", h.logger)
			return
		}
		h.logger.Error("Failed to update user", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to update account", h.logger)
		return
	}

	if emailChanged {
		h.sendVerificationMail(r, user)
	}

	respondJSON(w, http.StatusOK, user, h.logger)
}

// DeleteAccount handles DELETE /api/v1/auth/account (authenticated).
// The account is deactivated, not removed, so owned records stay intact.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	user.IsActive = false
	if err := h.users.Update(r.Context(), user); err != nil {
		h.logger.Error("Failed to deactivate user", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to delete account", h.logger)
		return
	}

	if err := h.tokens.DeleteSession(r.Context(), middleware.BearerToken(r)); err != nil {
		h.logger.Warn("Failed to delete session after account deletion", "error", err)
	}

	h.logger.Info("User deactivated", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Account successfully deleted. Goodbye!"}, h.logger)
}

type passwordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword handles PUT /api/v1/auth/password/change (authenticated)
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req passwordChangeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		respondError(w, http.StatusBadRequest, "Current password is incorrect", h.logger)
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), user.ID, passwordHash); err != nil {
		h.logger.Error("Failed to update password", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to change password", h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed."}, h.logger)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /api/v1/auth/password/reset. The
// response does not reveal whether the address is known.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err == nil && user.IsActive {
		token := auth.NewToken()
		if err := h.tokens.CreateOneTime(r.Context(), domain.TokenPurposePasswordReset, token, user.ID); err != nil {
			h.logger.Error("Failed to store reset token", "error", err, "user_id", user.ID)
		} else {
			msg := mailer.PasswordResetMessage(user.Email, user.Username, h.config.BaseURL, token, h.config.SupportEmail)
			if err := h.queue.Enqueue(r.Context(), domain.JobTypeSendEmail, msg); err != nil {
				h.logger.Error("Failed to queue reset mail", "error", err, "user_id", user.ID)
			}
		}
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("Failed to look up user for reset", "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If that address is registered, a reset link is on its way.",
	}, h.logger)
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset handles POST /api/v1/auth/password/reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	userID, err := h.tokens.ConsumeOneTime(r.Context(), domain.TokenPurposePasswordReset, req.Token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or expired reset token", h.logger)
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), userID, passwordHash); err != nil {
		h.logger.Error("Failed to update password", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to reset password", h.logger)
		return
	}

	h.logger.Info("Password reset completed", "user_id", userID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."}, h.logger)
}

// VerifyEmail handles GET /api/v1/auth/verify-email?token=... (the link in
// the confirmation mail) and POST with a JSON body.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		if err := decodeBody(r, &req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		respondError(w, http.StatusBadRequest, "Missing token", h.logger)
		return
	}

	userID, err := h.tokens.ConsumeOneTime(r.Context(), domain.TokenPurposeVerifyEmail, token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or expired verification token", h.logger)
		return
	}

	if err := h.users.SetEmailVerified(r.Context(), userID); err != nil {
		h.logger.Error("Failed to mark email verified", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to verify email", h.logger)
		return
	}

	h.logger.Info("Email verified", "user_id", userID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email address confirmed."}, h.logger)
}
