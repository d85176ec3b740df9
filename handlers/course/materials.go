package course

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/pdfvalidation"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"gorm.io/gorm"
)

// UploadMaterial handles POST /api/courses/:id/materials. Only the owning
// teacher may attach study files to a course.
func (h *CourseHandler) UploadMaterial(c *fiber.Ctx) error {
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

	if course.TeacherID != user.ID {
		return response.Forbidden(c, "Only the owning teacher can upload materials")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	err = h.uploadService.ValidateUploadBatch([]*multipart.FileHeader{file}, pdfvalidation.MaterialLimits)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	material, err := h.uploadService.SaveCourseMaterial(c.Context(), &course, user.ID, file)
	switch {
	case errors.Is(err, services.ErrRemoteUpload):
		return response.UploadError(c, "Failed to store material")
	case err != nil:
		return response.InternalServerError(c, "Failed to save material")
	}

	return response.Created(c, material)
}

// ListMaterials handles GET /api/courses/:id/materials. Restricted to
// course members.
func (h *CourseHandler) ListMaterials(c *fiber.Ctx) error {
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

	member, err := h.isMember(&course, user)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !member {
		return response.Forbidden(c, "Not a member of this course")
	}

	var materials []model.CourseMaterial
	err = h.db.Where("course_id = ?", course.ID).
		Order("created_at DESC").
		Find(&materials).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch materials")
	}

	return response.Success(c, materials)
}
