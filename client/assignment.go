package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Assignment is one assignment as returned by the server
type Assignment struct {
	ID          uint      `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxMarks    int       `json:"max_marks"`
	CreatedByID uint      `json:"created_by_id"`
}

// SubmissionFile is one uploaded file belonging to a submission
type SubmissionFile struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
}

// Submission is one student's response to an assignment
type Submission struct {
	ID           uint             `json:"id"`
	AssignmentID uint             `json:"assignment_id"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Late         bool             `json:"late"`
	Score        *int             `json:"score"`
	Feedback     *string          `json:"feedback"`
	Files        []SubmissionFile `json:"files"`
	Student      Profile          `json:"student"`
}

// AssignmentInput creates a new assignment
type AssignmentInput struct {
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	MaxMarks    int       `json:"max_marks"`
}

// CreateAssignment creates an assignment in a course the caller owns
func (c *Client) CreateAssignment(ctx context.Context, session *Session, input AssignmentInput) (*Assignment, error) {
	var assignment Assignment
	err := c.do(ctx, http.MethodPost, "/api/assignments", session, input, &assignment)
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignments returns a course's assignments ordered by due date
func (c *Client) ListAssignments(ctx context.Context, session *Session, courseID uint) ([]Assignment, error) {
	var assignments []Assignment
	path := fmt.Sprintf("/api/courses/%d/assignments", courseID)
	if err := c.do(ctx, http.MethodGet, path, session, nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// SubmitFiles uploads files against an assignment. The first call creates
// the student's submission; later calls append files and refresh the
// timestamp and late flag.
func (c *Client) SubmitFiles(ctx context.Context, session *Session, assignmentID uint, files []Upload) (*Submission, error) {
	var submission Submission
	path := fmt.Sprintf("/api/assignments/%d/submit", assignmentID)
	err := c.doMultipart(ctx, path, session, "files", files, &submission)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// DeleteSubmissionFile removes one file from the caller's submission by
// its URL
func (c *Client) DeleteSubmissionFile(ctx context.Context, session *Session, assignmentID uint, fileURL string) (*Submission, error) {
	var submission Submission
	path := fmt.Sprintf("/api/assignments/%d/files", assignmentID)
	body := map[string]string{"file_url": fileURL}
	if err := c.do(ctx, http.MethodDelete, path, session, body, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListSubmissions returns an assignment's submissions. The owning teacher
// sees every student's submission; a student sees only their own.
func (c *Client) ListSubmissions(ctx context.Context, session *Session, assignmentID uint) ([]Submission, error) {
	var submissions []Submission
	path := fmt.Sprintf("/api/assignments/%d/submissions", assignmentID)
	if err := c.do(ctx, http.MethodGet, path, session, nil, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// GradeInput sets a student's score and optional feedback
type GradeInput struct {
	StudentID uint    `json:"student_id"`
	Score     int     `json:"score"`
	Feedback  *string `json:"feedback,omitempty"`
}

// Grade records score and feedback on one student's submission
func (c *Client) Grade(ctx context.Context, session *Session, assignmentID uint, input GradeInput) (*Submission, error) {
	var submission Submission
	path := fmt.Sprintf("/api/assignments/%d/grade", assignmentID)
	if err := c.do(ctx, http.MethodPost, path, session, input, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// DashboardSummary holds the role-specific dashboard counters. Only the
// fields for the caller's role are populated.
type DashboardSummary struct {
	Role                    string `json:"role"`
	EnrolledCoursesCount    int64  `json:"enrolledCoursesCount"`
	PendingAssignmentsCount int64  `json:"pendingAssignmentsCount"`
	OwnedCoursesCount       int64  `json:"ownedCoursesCount"`
	SubmissionsToGradeCount int64  `json:"submissionsToGradeCount"`
}

// Dashboard returns the caller's dashboard summary
func (c *Client) Dashboard(ctx context.Context, session *Session) (*DashboardSummary, error) {
	var summary DashboardSummary
	err := c.do(ctx, http.MethodGet, "/api/dashboard/summary", session, nil, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
