package submission

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/pdfvalidation"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
	"gorm.io/gorm"
)

// SubmissionHandler handles submission upload, listing and grading
type SubmissionHandler struct {
	db            *gorm.DB
	validator     *validation.Validator
	uploadService *services.UploadService
	audit         *services.AuditRecorder
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(db *gorm.DB, uploadService *services.UploadService) *SubmissionHandler {
	return &SubmissionHandler{
		db:            db,
		validator:     validation.NewValidator(),
		uploadService: uploadService,
		audit:         services.NewAuditRecorder(db),
	}
}

// DeleteFileRequest identifies one uploaded file by its remote URL
type DeleteFileRequest struct {
	FileURL string `json:"file_url" validate:"required,url"`
}

// GradeRequest sets score and optional feedback for one student's
// submission. Score is a pointer so an explicit zero passes validation.
type GradeRequest struct {
	StudentID uint    `json:"student_id" validate:"required,min=1"`
	Score     *int    `json:"score" validate:"required"`
	Feedback  *string `json:"feedback" validate:"omitempty"`
}

// SubmissionView is the submission projection returned to callers,
// enriched with the student's public profile
type SubmissionView struct {
	ID           uint                   `json:"id"`
	AssignmentID uint                   `json:"assignment_id"`
	SubmittedAt  time.Time              `json:"submitted_at"`
	Late         bool                   `json:"late"`
	Score        *int                   `json:"score"`
	Feedback     *string                `json:"feedback"`
	Files        []model.SubmissionFile `json:"files"`
	Student      model.PublicProfile    `json:"student"`
}

func newSubmissionView(sub *model.Submission, student *model.User) SubmissionView {
	view := SubmissionView{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		SubmittedAt:  sub.SubmittedAt,
		Late:         sub.Late,
		Score:        sub.Score,
		Feedback:     sub.Feedback,
		Files:        sub.Files,
	}
	if student != nil {
		view.Student = student.Public()
	}
	if view.Files == nil {
		view.Files = []model.SubmissionFile{}
	}
	return view
}

// loadAssignment fetches the assignment with its course or writes the
// not-found response
func (h *SubmissionHandler) loadAssignment(c *fiber.Ctx) (*model.Assignment, error) {
	id := c.Params("id")

	var assignment model.Assignment
	if err := h.db.Preload("Course").Where("id = ?", id).First(&assignment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Assignment not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch assignment")
	}
	return &assignment, nil
}

// isEnrolled reports whether the student is in the course's enrollment set
func (h *SubmissionHandler) isEnrolled(courseID, studentID uint) (bool, error) {
	var count int64
	err := h.db.Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

// Submit handles POST /api/assignments/:id/submit (multipart field
// "files"). The student must be enrolled in the assignment's course. The
// first upload creates the submission; later uploads append files and
// refresh the timestamp and late flag.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignment, err := h.loadAssignment(c)
	if assignment == nil {
		return err
	}

	enrolled, err := h.isEnrolled(assignment.CourseID, user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if !enrolled {
		return response.Forbidden(c, "Not enrolled in this course")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Multipart form is required")
	}

	files := form.File["files"]
	if err := h.uploadService.ValidateUploadBatch(files, pdfvalidation.SubmissionLimits); err != nil {
		return response.BadRequest(c, err.Error())
	}

	submission, err := h.uploadService.SaveSubmissionFiles(c.Context(), assignment, user.ID, files)
	switch {
	case errors.Is(err, services.ErrRemoteUpload):
		return response.UploadError(c, "Failed to store submission files")
	case err != nil:
		return response.InternalServerError(c, "Failed to record submission")
	}

	view := newSubmissionView(submission, user)
	return response.Created(c, view)
}

// DeleteFile handles DELETE /api/assignments/:id/files. Only the student
// who owns the submission can remove files from it.
func (h *SubmissionHandler) DeleteFile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if !user.IsStudent() {
		return response.Forbidden(c, "Only the submission owner can delete files")
	}

	assignment, err := h.loadAssignment(c)
	if assignment == nil {
		return err
	}

	var req DeleteFileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var submission model.Submission
	err = h.db.Where("assignment_id = ? AND student_id = ?", assignment.ID, user.ID).
		First(&submission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "No submission found")
		}
		return response.InternalServerError(c, "Failed to fetch submission")
	}

	updated, err := h.uploadService.DeleteSubmissionFile(c.Context(), &submission, req.FileURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "File not found in submission")
		}
		return response.InternalServerError(c, "Failed to delete file")
	}

	h.audit.Record(c.Context(), user.ID, model.AuditActionFileDelete, "submissions", submission.ID, map[string]interface{}{
		"file_url": req.FileURL,
	})

	view := newSubmissionView(updated, user)
	return response.SuccessWithMessage(c, "File deleted successfully", view)
}

// List handles GET /api/assignments/:id/submissions. The owning teacher
// sees every submission with student identity attached; a student sees
// only their own, as a list that is empty until they submit.
func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignment, err := h.loadAssignment(c)
	if assignment == nil {
		return err
	}

	switch {
	case user.IsTeacher():
		if assignment.Course.TeacherID != user.ID {
			return response.Forbidden(c, "Only the owning teacher can list submissions")
		}

		var submissions []model.Submission
		err := h.db.Preload("Files").Preload("Student").
			Where("assignment_id = ?", assignment.ID).
			Order("submitted_at ASC").
			Find(&submissions).Error
		if err != nil {
			return response.InternalServerError(c, "Failed to fetch submissions")
		}

		views := make([]SubmissionView, 0, len(submissions))
		for i := range submissions {
			views = append(views, newSubmissionView(&submissions[i], &submissions[i].Student))
		}
		return response.Success(c, views)

	case user.IsStudent():
		var submission model.Submission
		err := h.db.Preload("Files").
			Where("assignment_id = ? AND student_id = ?", assignment.ID, user.ID).
			First(&submission).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Success(c, []SubmissionView{})
			}
			return response.InternalServerError(c, "Failed to fetch submission")
		}

		return response.Success(c, []SubmissionView{newSubmissionView(&submission, user)})

	default:
		return response.Forbidden(c, "Access denied")
	}
}

// Grade handles POST /api/assignments/:id/grade. Only the owning teacher
// may grade, and only an existing submission can be graded. The score is
// stored as sent; it is not clamped to the assignment's max marks.
func (h *SubmissionHandler) Grade(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignment, err := h.loadAssignment(c)
	if assignment == nil {
		return err
	}

	if assignment.Course.TeacherID != user.ID {
		return response.Forbidden(c, "Only the owning teacher can grade submissions")
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var submission model.Submission
	err = h.db.Preload("Files").Preload("Student").
		Where("assignment_id = ? AND student_id = ?", assignment.ID, req.StudentID).
		First(&submission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "No submission to grade")
		}
		return response.InternalServerError(c, "Failed to fetch submission")
	}

	oldScore := submission.Score

	updates := map[string]interface{}{"score": *req.Score}
	if req.Feedback != nil {
		updates["feedback"] = *req.Feedback
	}
	if err := h.db.Model(&submission).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to grade submission")
	}
	submission.Score = req.Score
	if req.Feedback != nil {
		submission.Feedback = req.Feedback
	}

	metadata := map[string]interface{}{
		"student_id": req.StudentID,
		"new_score":  *req.Score,
	}
	if oldScore != nil {
		metadata["old_score"] = *oldScore
	}
	h.audit.Record(c.Context(), user.ID, model.AuditActionGradeSet, "submissions", submission.ID, metadata)

	view := newSubmissionView(&submission, &submission.Student)
	return response.SuccessWithMessage(c, "Submission graded successfully", view)
}
