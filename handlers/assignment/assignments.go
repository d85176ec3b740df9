package assignment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
	"gorm.io/gorm"
)

// AssignmentHandler handles assignment-related requests
type AssignmentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(db *gorm.DB) *AssignmentHandler {
	return &AssignmentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateAssignmentRequest represents the request body for creating an
// assignment. MaxMarks must be a positive integer; zero and negatives are
// rejected by validation.
type CreateAssignmentRequest struct {
	CourseID    uint      `json:"course_id" validate:"required,min=1"`
	Title       string    `json:"title" validate:"required,min=2,max=255"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxMarks    int       `json:"max_marks" validate:"required,gt=0"`
}

// CreateAssignment handles POST /api/assignments. The route is
// teacher-only; the teacher must additionally own the target course.
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if course.TeacherID != user.ID {
		return response.Forbidden(c, "Only the owning teacher can create assignments")
	}

	assignment := model.Assignment{
		CourseID:    course.ID,
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		DueDate:     req.DueDate,
		MaxMarks:    req.MaxMarks,
		CreatedByID: user.ID,
	}

	if err := h.db.Create(&assignment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create assignment")
	}

	return response.Created(c, assignment)
}

// ListAssignments handles GET /api/courses/:id/assignments. Any
// authenticated caller may read the list.
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Where("id = ?", id).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var assignments []model.Assignment
	err := h.db.Where("course_id = ?", course.ID).
		Order("due_date ASC").
		Find(&assignments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignments")
	}

	return response.Success(c, assignments)
}
