package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services"
	authutil "github.com/sahilchouksey/classbridge-api/utils/auth"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db               *gorm.DB
	validator        *validation.Validator
	jwtManager       *authutil.JWTManager
	blacklistService *authutil.BlacklistService
	uploadService    *services.UploadService
	audit            *services.AuditRecorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, blacklistService *authutil.BlacklistService, uploadService *services.UploadService) *AuthHandler {
	return &AuthHandler{
		db:               db,
		validator:        validation.NewValidator(),
		jwtManager:       jwtManager,
		blacklistService: blacklistService,
		uploadService:    uploadService,
		audit:            services.NewAuditRecorder(db),
	}
}

// RegisterRequest represents a signup request. Students must carry a roll
// number; teachers may carry a department.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,oneof=student teacher"`
	RollNumber string `json:"roll_number" validate:"required_if=Role student,omitempty,max=50"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

// AuthResponse represents a successful signup or login response
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	RollNumber *string   `json:"roll_number,omitempty"`
	Department string    `json:"department,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		RollNumber: user.RollNumber,
		Department: user.Department,
		PhotoURL:   user.PhotoURL,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// issueToken signs a bearer token for the user and wraps it with the
// profile into the auth response
func (h *AuthHandler) issueToken(user *model.User) (*AuthResponse, error) {
	token, _, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:      newUserResponse(user),
		Token:     token,
		ExpiresIn: int(h.jwtManager.Expiry().Seconds()),
	}, nil
}

// Register handles POST /api/signup
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate request
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Sanitize inputs
	req.Name = validation.SanitizeString(req.Name)
	req.Email = validation.SanitizeString(req.Email)
	req.RollNumber = validation.SanitizeString(req.RollNumber)
	req.Department = validation.SanitizeString(req.Department)

	// Check if user already exists
	var existingUser model.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	// Roll numbers are unique among students
	if req.Role == model.RoleStudent {
		if err := h.db.Where("roll_number = ?", req.RollNumber).First(&existingUser).Error; err == nil {
			return response.Conflict(c, "User with this roll number already exists")
		}
	}

	// Hash password
	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	// Create user
	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		Department:   req.Department,
		TokenVersion: 0,
	}
	if req.Role == model.RoleStudent {
		roll := req.RollNumber
		user.RollNumber = &roll
	}

	if err := h.db.Create(&user).Error; err != nil {
		// The unique indexes are authoritative under concurrent signups
		if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
			return response.Conflict(c, "User with this email already exists")
		}
		if req.Role == model.RoleStudent {
			if err := h.db.Where("roll_number = ?", req.RollNumber).First(&existingUser).Error; err == nil {
				return response.Conflict(c, "User with this roll number already exists")
			}
		}
		return response.InternalServerError(c, "Failed to create user")
	}

	res, err := h.issueToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.Created(c, res)
}
