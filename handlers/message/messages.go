package message

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
	"gorm.io/gorm"
)

// MessageHandler handles the per-course message board
type MessageHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// PostMessageRequest represents the request body for posting a message
type PostMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// MessageView is the board entry projection with the author's public
// profile attached
type MessageView struct {
	ID        uint                `json:"id"`
	CourseID  uint                `json:"course_id"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"created_at"`
	Author    model.PublicProfile `json:"author"`
}

func newMessageView(msg *model.CourseMessage, author *model.User) MessageView {
	return MessageView{
		ID:        msg.ID,
		CourseID:  msg.CourseID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		Author:    author.Public(),
	}
}

// loadCourse fetches the course or writes the not-found response
func (h *MessageHandler) loadCourse(c *fiber.Ctx) (*model.Course, error) {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Where("id = ?", id).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Course not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch course")
	}
	return &course, nil
}

// isMember reports whether the user owns the course or is enrolled in it
func (h *MessageHandler) isMember(course *model.Course, user *model.User) (bool, error) {
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

// Post handles POST /api/courses/:id/messages. Only course members may
// post; entries are immutable once created.
func (h *MessageHandler) Post(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	course, err := h.loadCourse(c)
	if course == nil {
		return err
	}

	member, err := h.isMember(course, user)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !member {
		return response.Forbidden(c, "Not a member of this course")
	}

	var req PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Content = validation.SanitizeString(req.Content)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	msg := model.CourseMessage{
		CourseID: course.ID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		return response.InternalServerError(c, "Failed to post message")
	}

	return response.Created(c, newMessageView(&msg, user))
}

// List handles GET /api/courses/:id/messages, oldest first
func (h *MessageHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	course, err := h.loadCourse(c)
	if course == nil {
		return err
	}

	member, err := h.isMember(course, user)
	if err != nil {
		return response.InternalServerError(c, "Failed to check membership")
	}
	if !member {
		return response.Forbidden(c, "Not a member of this course")
	}

	var messages []model.CourseMessage
	err = h.db.Preload("Author").
		Where("course_id = ?", course.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch messages")
	}

	views := make([]MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, newMessageView(&messages[i], &messages[i].Author))
	}

	return response.Success(c, views)
}
