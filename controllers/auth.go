package controllers

import (
	"net/http"
	"strings"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/utils"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email" label:"correo"`
	Password string `json:"password" validate:"required" label:"contraseña"`
}

func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

type UpdateProfileInput struct {
	FullName        *string `json:"full_name" validate:"omitempty,max=100" label:"nombre"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password" validate:"omitempty,min=8" label:"nueva contraseña"`
}

func (in *UpdateProfileInput) Normalize() {
	if in.FullName != nil {
		trimmed := strings.TrimSpace(*in.FullName)
		in.FullName = &trimmed
	}
}

// AuthController issues and checks admin sessions.
type AuthController struct {
	Users     *repository.Repository[models.AdminUser]
	Validator *validation.Validator
	Settings  *config.Settings
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if !bindForm(c, ac.Validator, &input) {
		return
	}

	user, err := ac.Users.First(c.Request.Context(), repository.Where("email = ?", input.Email))
	if err != nil {
		if repository.CodeOf(err) == repository.CodeNotFound {
			utils.RespondWithError(c, http.StatusUnauthorized, "Credenciales inválidas")
			return
		}
		respondDataError(c, "Login", "iniciar sesión", err, "")
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.Email, ac.Settings.JWTSecret, ac.Settings.JWTExpiry)
	if err != nil {
		config.LogError(config.GetLogger(), "controllers", "Login", "generate token", user.Email, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "No se pudo generar el token")
		return
	}

	// Update last login
	now := time.Now()
	if err := ac.Users.Patch(c.Request.Context(), user.ID, map[string]any{"last_login": now}); err != nil {
		config.LogError(config.GetLogger(), "controllers", "Login", "update last_login", user.Email, err)
	}
	user.LastLogin = &now

	c.SetCookie(
		utils.TokenCookie,
		token,
		int(ac.Settings.JWTExpiry.Seconds()),
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie(utils.TokenCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

func (ac *AuthController) Me(c *gin.Context) {
	user, ok := ac.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile changes the display name and, when current_password matches,
// the password.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	user, ok := ac.currentUser(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if !bindForm(c, ac.Validator, &input) {
		return
	}

	fields := map[string]any{}
	if input.FullName != nil {
		fields["full_name"] = optionalString(*input.FullName)
	}
	if input.NewPassword != "" {
		if !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
			utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{
				"current_password": "La contraseña actual no es correcta",
			})
			return
		}
		hashed, err := utils.HashPassword(input.NewPassword)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Error al actualizar el perfil")
			return
		}
		fields["password"] = hashed
	}
	if len(fields) == 0 {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	if err := ac.Users.Patch(c.Request.Context(), user.ID, fields); err != nil {
		respondDataError(c, "UpdateProfile", "actualizar el perfil", err, "")
		return
	}
	updated, err := ac.Users.Get(c.Request.Context(), user.ID)
	if err != nil {
		respondDataError(c, "UpdateProfile", "actualizar el perfil", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Perfil actualizado", "user": updated})
}

// contextAdmin holds the admin loaded by RequireActive.
const contextAdmin = "admin_user"

// RequireActive runs after utils.AuthMiddleware and rejects tokens whose admin
// has since been deleted or deactivated.
func (ac *AuthController) RequireActive(c *gin.Context) {
	user, ok := ac.loadUser(c)
	if !ok {
		c.Abort()
		return
	}
	c.Set(contextAdmin, user)
	c.Next()
}

func (ac *AuthController) currentUser(c *gin.Context) (*models.AdminUser, bool) {
	if v, ok := c.Get(contextAdmin); ok {
		if user, ok := v.(*models.AdminUser); ok {
			return user, true
		}
	}
	return ac.loadUser(c)
}

func (ac *AuthController) loadUser(c *gin.Context) (*models.AdminUser, bool) {
	id, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Sesión inválida")
		return nil, false
	}
	user, err := ac.Users.Get(c.Request.Context(), id)
	if err != nil {
		if repository.CodeOf(err) == repository.CodeNotFound {
			utils.RespondWithError(c, http.StatusUnauthorized, "Usuario no encontrado")
			return nil, false
		}
		respondDataError(c, "currentUser", "obtener el usuario", err, "")
		return nil, false
	}
	if !user.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Usuario inactivo")
		return nil, false
	}
	return user, true
}
