package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Course is one course as returned by the server
type Course struct {
	ID          uint       `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	TeacherID   uint       `json:"teacher_id"`
	Teacher     *User      `json:"teacher,omitempty"`
	Materials   []Material `json:"materials,omitempty"`
}

// CourseDetail is the single-course view with the enrollment count and,
// for the owning teacher, the member roster
type CourseDetail struct {
	Course          Course    `json:"course"`
	EnrollmentCount int64     `json:"enrollment_count"`
	Members         []Profile `json:"members,omitempty"`
}

// Material is a teacher-uploaded study file attached to a course
type Material struct {
	ID         uint      `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	CourseID   uint      `json:"course_id"`
	UploaderID uint      `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
}

// Message is one entry on a course's message board
type Message struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    Profile   `json:"author"`
}

// CourseInput creates a new course
type CourseInput struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// CreateCourse creates a course owned by the calling teacher
func (c *Client) CreateCourse(ctx context.Context, session *Session, input CourseInput) (*Course, error) {
	var course Course
	if err := c.do(ctx, http.MethodPost, "/api/courses", session, input, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListCourses returns all courses, filtered by a case-insensitive
// substring search over name, code and description when search is
// non-empty
func (c *Client) ListCourses(ctx context.Context, session *Session, search string) ([]Course, error) {
	path := "/api/courses"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var courses []Course
	if err := c.do(ctx, http.MethodGet, path, session, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourse returns one course with its materials and enrollment count
func (c *Client) GetCourse(ctx context.Context, session *Session, courseID uint) (*CourseDetail, error) {
	var detail CourseDetail
	path := fmt.Sprintf("/api/courses/%d", courseID)
	if err := c.do(ctx, http.MethodGet, path, session, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// JoinCourse enrolls the calling student. Joining a course the student
// already belongs to is a no-op.
func (c *Client) JoinCourse(ctx context.Context, session *Session, courseID uint) error {
	path := fmt.Sprintf("/api/courses/%d/join", courseID)
	return c.do(ctx, http.MethodPost, path, session, nil, nil)
}

// MyCourses returns the caller's courses: owned for teachers, enrolled
// for students
func (c *Client) MyCourses(ctx context.Context, session *Session) ([]Course, error) {
	var courses []Course
	if err := c.do(ctx, http.MethodGet, "/api/my-courses", session, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListMaterials returns a course's study files, newest first
func (c *Client) ListMaterials(ctx context.Context, session *Session, courseID uint) ([]Material, error) {
	var materials []Material
	path := fmt.Sprintf("/api/courses/%d/materials", courseID)
	if err := c.do(ctx, http.MethodGet, path, session, nil, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

// UploadMaterial attaches one study file to a course the caller owns
func (c *Client) UploadMaterial(ctx context.Context, session *Session, courseID uint, file Upload) (*Material, error) {
	var material Material
	path := fmt.Sprintf("/api/courses/%d/materials", courseID)
	err := c.doMultipart(ctx, path, session, "file", []Upload{file}, &material)
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// ListMessages returns a course's message board, oldest first
func (c *Client) ListMessages(ctx context.Context, session *Session, courseID uint) ([]Message, error) {
	var messages []Message
	path := fmt.Sprintf("/api/courses/%d/messages", courseID)
	if err := c.do(ctx, http.MethodGet, path, session, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage appends a message to a course's board
func (c *Client) PostMessage(ctx context.Context, session *Session, courseID uint, content string) (*Message, error) {
	var message Message
	path := fmt.Sprintf("/api/courses/%d/messages", courseID)
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, path, session, body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
