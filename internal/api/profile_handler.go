package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/avatar"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// AvatarFormField is the multipart field carrying the uploaded image.
const AvatarFormField = "avatar"

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// ProfileHandler handles the authenticated user's profile and avatar.
type ProfileHandler struct {
	profiles       service.ProfileService
	maxAvatarBytes int64
	logger         *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles service.ProfileService, maxAvatarBytes int64, logger *slog.Logger) *ProfileHandler {
	if profiles == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("profile service cannot be nil for ProfileHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{
		profiles:       profiles,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger.With(slog.String("component", "profile_handler")),
	}
}

// GetProfile handles GET /api/user/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileResponse{
		User:      profile.User,
		Analytics: analyticsToResponse(profile.Analytics),
	})
}

// UpdateProfile handles PUT /api/user/profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, service.ProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		Bio:             req.Bio,
		Phone:           req.Phone,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: "Profile updated successfully", User: user})
}

// DeleteAccount handles DELETE /api/user/profile.
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req DeleteAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.profiles.DeleteAccount(r.Context(), userID, service.DeleteAccountInput{
		Password:     req.Password,
		ConfirmOAuth: req.ConfirmOAuth,
	})
	if err != nil {
		if errors.Is(err, service.ErrIncorrectPassword) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid password", err)
			return
		}
		HandleAPIError(w, r, err, "Failed to delete account")
		return
	}

	log.Info("account deleted", slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Account deleted successfully"})
}

// UploadAvatar handles POST /api/user/avatar with a multipart "avatar" file.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxAvatarBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			HandleAPIError(w, r, avatar.ErrTooLarge, "")
			return
		}
		HandleAPIError(w, r, avatar.ErrEmpty, "")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(AvatarFormField)
	if err != nil {
		HandleAPIError(w, r, avatar.ErrEmpty, "")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxAvatarBytes {
		HandleAPIError(w, r, avatar.ErrTooLarge, "")
		return
	}

	user, err := h.profiles.SetAvatar(r.Context(), userID, file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload avatar")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: "Avatar uploaded successfully", User: user})
}

// RemoveAvatar handles DELETE /api/user/avatar.
func (h *ProfileHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	user, err := h.profiles.RemoveAvatar(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove avatar")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: "Avatar removed successfully", User: user})
}
