package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseHandler handles course and enrollment requests
type CourseHandler struct {
	db            *gorm.DB
	validator     *validation.Validator
	uploadService *services.UploadService
	audit         *services.AuditRecorder
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, uploadService *services.UploadService) *CourseHandler {
	return &CourseHandler{
		db:            db,
		validator:     validation.NewValidator(),
		uploadService: uploadService,
		audit:         services.NewAuditRecorder(db),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Code        string `json:"code" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// CourseDetail is the single-course projection with membership info.
// Members are included only for the owning teacher.
type CourseDetail struct {
	Course          model.Course          `json:"course"`
	EnrollmentCount int64                 `json:"enrollment_count"`
	Members         []model.PublicProfile `json:"members,omitempty"`
}

// CreateCourse handles POST /api/courses. The route is teacher-only; any
// teacher may create courses and becomes the owner.
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Sanitize inputs
	req.Name = validation.SanitizeString(req.Name)
	req.Code = validation.SanitizeString(req.Code)
	req.Description = validation.SanitizeString(req.Description)

	// Check if course with same code already exists
	var existingCourse model.Course
	if err := h.db.Where("code = ?", req.Code).First(&existingCourse).Error; err == nil {
		return response.Conflict(c, "Course with this code already exists")
	}

	course := model.Course{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		TeacherID:   user.ID,
	}

	if err := h.db.Create(&course).Error; err != nil {
		// The unique code index is authoritative under concurrent creates
		if err := h.db.Where("code = ?", req.Code).First(&existingCourse).Error; err == nil {
			return response.Conflict(c, "Course with this code already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}

	h.audit.Record(c.Context(), user.ID, model.AuditActionCourseCreate, "courses", course.ID, map[string]interface{}{
		"code": course.Code,
		"name": course.Name,
	})

	// Preload teacher for response
	h.db.Preload("Teacher").First(&course, course.ID)

	return response.Created(c, course)
}

// ListCourses handles GET /api/courses with optional ?search= substring
// matching over name, code and description
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	search := c.Query("search", "")

	query := h.db.Model(&model.Course{})
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	var courses []model.Course
	if err := query.Preload("Teacher").
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// GetCourse handles GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.Preload("Teacher").Preload("Materials").
		Where("id = ?", id).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	detail := CourseDetail{Course: course}

	err := h.db.Model(&model.Enrollment{}).
		Where("course_id = ?", course.ID).
		Count(&detail.EnrollmentCount).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to count enrollments")
	}

	// The owning teacher also sees who is enrolled
	if course.TeacherID == user.ID {
		var students []model.User
		err := h.db.Joins("JOIN enrollments ON enrollments.student_id = users.id").
			Where("enrollments.course_id = ?", course.ID).
			Order("users.name ASC").
			Find(&students).Error
		if err != nil {
			return response.InternalServerError(c, "Failed to fetch members")
		}

		detail.Members = make([]model.PublicProfile, 0, len(students))
		for i := range students {
			detail.Members = append(detail.Members, students[i].Public())
		}
	}

	return response.Success(c, detail)
}

// JoinCourse handles POST /api/courses/:id/join. Joining twice is a
// no-op, not an error.
func (h *CourseHandler) JoinCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.Where("id = ?", id).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	enrollment := model.Enrollment{
		CourseID:  course.ID,
		StudentID: user.ID,
	}

	err := h.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to join course")
	}

	return response.SuccessWithMessage(c, "Enrolled successfully", fiber.Map{
		"course_id":  course.ID,
		"student_id": user.ID,
	})
}

// MyCourses handles GET /api/my-courses: owned courses for a teacher,
// enrolled courses for a student
func (h *CourseHandler) MyCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var courses []model.Course
	var err error

	if user.IsTeacher() {
		err = h.db.Where("teacher_id = ?", user.ID).
			Order("created_at DESC").
			Find(&courses).Error
	} else {
		err = h.db.Preload("Teacher").
			Joins("JOIN enrollments ON enrollments.course_id = courses.id").
			Where("enrollments.student_id = ?", user.ID).
			Order("courses.created_at DESC").
			Find(&courses).Error
	}

	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// isMember reports whether the user owns the course or is enrolled in it
func (h *CourseHandler) isMember(course *model.Course, user *model.User) (bool, error) {
	if course.TeacherID == user.ID {
		return true, nil
	}

	var count int64
	err := h.db.Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", course.ID, user.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
