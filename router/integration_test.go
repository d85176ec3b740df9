package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/api"
	"github.com/sahilchouksey/classbridge-api/database"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services/storage"
	"gorm.io/gorm"
)

// These tests run the full HTTP stack against a real database. They are
// gated behind RUN_INTEGRATION_TESTS and need DB_* variables; tests that
// transfer files additionally need the DO_SPACES_* variables and skip
// without them.

var (
	setupOnce sync.Once
	testApp   *fiber.App
	testDB    *gorm.DB
	setupErr  error
)

func integrationApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	setupOnce.Do(func() {
		if os.Getenv("JWT_SECRET") == "" {
			os.Setenv("JWT_SECRET", "integration-test-secret")
		}

		store, err := database.StartGORM()
		if err != nil {
			setupErr = fmt.Errorf("connecting to database: %w", err)
			return
		}
		if err := store.Init(); err != nil {
			setupErr = fmt.Errorf("running migrations: %w", err)
			return
		}

		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			setupErr = fmt.Errorf("unexpected store DB type")
			return
		}
		testDB = db

		server := api.NewAPIServer(":0")
		app := server.GetEngine()
		SetupRoutes(app, store)
		testApp = app
	})

	if setupErr != nil {
		t.Fatalf("integration setup failed: %v", setupErr)
	}
	return testApp, testDB
}

func requireStorage(t *testing.T) {
	t.Helper()
	if _, err := storage.LoadSpacesConfig(); err != nil {
		t.Skipf("Skipping: object storage not configured (%v)", err)
	}
}

// uniqueID keeps test data from colliding across runs on a shared database
func uniqueID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response failed: %v", err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decoding envelope failed (%s): %v", raw, err)
	}
	return resp.StatusCode, env
}

type userData struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	RollNumber *string `json:"roll_number"`
}

type authData struct {
	User  userData `json:"user"`
	Token string   `json:"token"`
}

func signupUser(t *testing.T, app *fiber.App, role, name string) (string, userData) {
	t.Helper()

	id := uniqueID()
	body := map[string]string{
		"name":     name,
		"email":    fmt.Sprintf("%s-%s@example.com", role, id),
		"password": "password123",
		"role":     role,
	}
	if role == "student" {
		body["roll_number"] = "RN-" + id
	}

	status, env := doJSON(t, app, http.MethodPost, "/api/signup", "", body)
	if status != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", status, env.Message)
	}

	var payload authData
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding signup payload failed: %v", err)
	}
	return payload.Token, payload.User
}

type courseData struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func createCourse(t *testing.T, app *fiber.App, token, name, code string) courseData {
	t.Helper()

	status, env := doJSON(t, app, http.MethodPost, "/api/courses", token, map[string]string{
		"name": name,
		"code": code,
	})
	if status != http.StatusCreated {
		t.Fatalf("course creation returned %d: %s", status, env.Message)
	}

	var course courseData
	if err := json.Unmarshal(env.Data, &course); err != nil {
		t.Fatalf("decoding course payload failed: %v", err)
	}
	return course
}

type assignmentData struct {
	ID       uint `json:"id"`
	CourseID uint `json:"course_id"`
	MaxMarks int  `json:"max_marks"`
}

func createAssignment(t *testing.T, app *fiber.App, token string, courseID uint, due time.Time, maxMarks int) assignmentData {
	t.Helper()

	status, env := doJSON(t, app, http.MethodPost, "/api/assignments", token, map[string]interface{}{
		"course_id": courseID,
		"title":     "HW1",
		"due_date":  due,
		"max_marks": maxMarks,
	})
	if status != http.StatusCreated {
		t.Fatalf("assignment creation returned %d: %s", status, env.Message)
	}

	var assignment assignmentData
	if err := json.Unmarshal(env.Data, &assignment); err != nil {
		t.Fatalf("decoding assignment payload failed: %v", err)
	}
	return assignment
}

func joinCourse(t *testing.T, app *fiber.App, token string, courseID uint) {
	t.Helper()

	status, env := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/courses/%d/join", courseID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("join returned %d: %s", status, env.Message)
	}
}

func submitFiles(t *testing.T, app *fiber.App, token string, assignmentID uint, names ...string) (int, apiEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := part.Write([]byte("submission content for " + name)); err != nil {
			t.Fatalf("writing part failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", assignmentID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response failed: %v", err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decoding envelope failed (%s): %v", raw, err)
	}
	return resp.StatusCode, env
}

type submissionData struct {
	ID          uint      `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Late        bool      `json:"late"`
	Score       *int      `json:"score"`
	Feedback    *string   `json:"feedback"`
	Student     struct {
		ID uint `json:"id"`
	} `json:"student"`
}

func listSubmissions(t *testing.T, app *fiber.App, token string, assignmentID uint) []submissionData {
	t.Helper()

	status, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/assignments/%d/submissions", assignmentID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("listing submissions returned %d: %s", status, env.Message)
	}

	var submissions []submissionData
	if err := json.Unmarshal(env.Data, &submissions); err != nil {
		t.Fatalf("decoding submissions failed: %v", err)
	}
	return submissions
}

func TestSignupRejectsMissingFields(t *testing.T) {
	app, _ := integrationApp(t)

	id := uniqueID()
	cases := []struct {
		name string
		body map[string]string
	}{
		{
			name: "missing role",
			body: map[string]string{"name": "Ada", "email": "a-" + id + "@example.com", "password": "password123"},
		},
		{
			name: "missing name",
			body: map[string]string{"email": "b-" + id + "@example.com", "password": "password123", "role": "teacher"},
		},
		{
			name: "missing password",
			body: map[string]string{"name": "Ada", "email": "c-" + id + "@example.com", "role": "teacher"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := doJSON(t, app, http.MethodPost, "/api/signup", "", tc.body)
			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if env.Error == nil || env.Error.Code != "INVALID_INPUT" {
				t.Errorf("expected INVALID_INPUT, got %+v", env.Error)
			}
		})
	}
}

func TestSignupDuplicateRollNumberConflicts(t *testing.T) {
	app, _ := integrationApp(t)

	id := uniqueID()
	roll := "RN-DUP-" + id

	first := map[string]string{
		"name": "First Student", "email": "dup1-" + id + "@example.com",
		"password": "password123", "role": "student", "roll_number": roll,
	}
	status, env := doJSON(t, app, http.MethodPost, "/api/signup", "", first)
	if status != http.StatusCreated {
		t.Fatalf("first signup returned %d: %s", status, env.Message)
	}

	second := map[string]string{
		"name": "Second Student", "email": "dup2-" + id + "@example.com",
		"password": "password123", "role": "student", "roll_number": roll,
	}
	status, env = doJSON(t, app, http.MethodPost, "/api/signup", "", second)
	if status != http.StatusConflict {
		t.Errorf("expected 409 for a duplicate roll number, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %+v", env.Error)
	}
}

func TestAssignmentCreationRequiresOwnership(t *testing.T) {
	app, _ := integrationApp(t)

	ownerToken, _ := signupUser(t, app, "teacher", "Owner")
	otherToken, _ := signupUser(t, app, "teacher", "Other")

	course := createCourse(t, app, ownerToken, "Owned Course", "OWN-"+uniqueID())

	status, env := doJSON(t, app, http.MethodPost, "/api/assignments", otherToken, map[string]interface{}{
		"course_id": course.ID,
		"title":     "Sneaky Assignment",
		"due_date":  time.Now().Add(24 * time.Hour),
		"max_marks": 100,
	})
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %+v", env.Error)
	}
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	app, _ := integrationApp(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Teacher")
	outsiderToken, _ := signupUser(t, app, "student", "Outsider")

	course := createCourse(t, app, teacherToken, "Members Only", "MEM-"+uniqueID())
	assignment := createAssignment(t, app, teacherToken, course.ID, time.Now().Add(24*time.Hour), 100)

	status, env := submitFiles(t, app, outsiderToken, assignment.ID, "notes.txt")
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for a non-enrolled student, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %+v", env.Error)
	}
}

func TestJoinCourseIsIdempotent(t *testing.T) {
	app, db := integrationApp(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Teacher")
	studentToken, student := signupUser(t, app, "student", "Student")

	course := createCourse(t, app, teacherToken, "Join Twice", "JT-"+uniqueID())

	joinCourse(t, app, studentToken, course.ID)
	joinCourse(t, app, studentToken, course.ID)

	var count int64
	err := db.Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", course.ID, student.ID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("counting enrollments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one enrollment, got %d", count)
	}
}

func TestGradeAndListRoundTrip(t *testing.T) {
	app, db := integrationApp(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Grader")
	studentToken, student := signupUser(t, app, "student", "Gradee")

	course := createCourse(t, app, teacherToken, "Grading", "GR-"+uniqueID())
	joinCourse(t, app, studentToken, course.ID)
	assignment := createAssignment(t, app, teacherToken, course.ID, time.Now().Add(24*time.Hour), 100)

	// Seed the submission row directly so grading does not depend on
	// object storage being reachable
	submission := model.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		SubmittedAt:  time.Now(),
	}
	if err := db.Create(&submission).Error; err != nil {
		t.Fatalf("seeding submission failed: %v", err)
	}

	status, env := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/assignments/%d/grade", assignment.ID), teacherToken,
		map[string]interface{}{"student_id": student.ID, "score": 85, "feedback": "Good job"})
	if status != http.StatusOK {
		t.Fatalf("grading returned %d: %s", status, env.Message)
	}

	submissions := listSubmissions(t, app, teacherToken, assignment.ID)
	if len(submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(submissions))
	}
	got := submissions[0]
	if got.Score == nil || *got.Score != 85 {
		t.Errorf("expected score 85, got %v", got.Score)
	}
	if got.Feedback == nil || *got.Feedback != "Good job" {
		t.Errorf("expected feedback 'Good job', got %v", got.Feedback)
	}
	if got.Student.ID != student.ID {
		t.Errorf("expected submission attributed to student %d, got %d", student.ID, got.Student.ID)
	}
}

func TestCoursePortalEndToEnd(t *testing.T) {
	app, _ := integrationApp(t)
	requireStorage(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Prof")
	studentToken, student := signupUser(t, app, "student", "Learner")

	course := createCourse(t, app, teacherToken, "CS101", "CS101-"+uniqueID())
	joinCourse(t, app, studentToken, course.ID)
	assignment := createAssignment(t, app, teacherToken, course.ID, time.Now().Add(7*24*time.Hour), 100)

	status, env := submitFiles(t, app, studentToken, assignment.ID, "homework.txt")
	if status != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", status, env.Message)
	}

	submissions := listSubmissions(t, app, teacherToken, assignment.ID)
	if len(submissions) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(submissions))
	}
	if submissions[0].Student.ID != student.ID {
		t.Errorf("expected submission from student %d, got %d", student.ID, submissions[0].Student.ID)
	}
	if submissions[0].Score != nil {
		t.Errorf("expected an ungraded submission, got score %v", *submissions[0].Score)
	}

	status, env = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/assignments/%d/grade", assignment.ID), teacherToken,
		map[string]interface{}{"student_id": student.ID, "score": 90})
	if status != http.StatusOK {
		t.Fatalf("grading returned %d: %s", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodGet, "/api/dashboard/summary", teacherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", status, env.Message)
	}

	var summary struct {
		Role                    string `json:"role"`
		OwnedCoursesCount       int64  `json:"ownedCoursesCount"`
		SubmissionsToGradeCount int64  `json:"submissionsToGradeCount"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decoding dashboard failed: %v", err)
	}
	if summary.Role != "teacher" {
		t.Errorf("expected teacher summary, got %s", summary.Role)
	}
	if summary.OwnedCoursesCount != 1 {
		t.Errorf("expected one owned course, got %d", summary.OwnedCoursesCount)
	}
	if summary.SubmissionsToGradeCount != 0 {
		t.Errorf("expected no submissions left to grade, got %d", summary.SubmissionsToGradeCount)
	}
}

func TestLateSubmissionSetsFlag(t *testing.T) {
	app, _ := integrationApp(t)
	requireStorage(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Strict")
	studentToken, _ := signupUser(t, app, "student", "Tardy")

	course := createCourse(t, app, teacherToken, "Deadlines", "DL-"+uniqueID())
	joinCourse(t, app, studentToken, course.ID)

	// Already past due when the student submits
	assignment := createAssignment(t, app, teacherToken, course.ID, time.Now().Add(-1*time.Hour), 50)

	status, env := submitFiles(t, app, studentToken, assignment.ID, "late.txt")
	if status != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", status, env.Message)
	}

	var submission submissionData
	if err := json.Unmarshal(env.Data, &submission); err != nil {
		t.Fatalf("decoding submission failed: %v", err)
	}
	if !submission.Late {
		t.Error("expected the late flag to be set for a past-due submission")
	}
}

func TestAssignmentRejectsNonPositiveMaxMarks(t *testing.T) {
	app, _ := integrationApp(t)

	teacherToken, _ := signupUser(t, app, "teacher", "Validator")
	course := createCourse(t, app, teacherToken, "Bounds", "BND-"+uniqueID())

	for _, marks := range []int{0, -10} {
		status, env := doJSON(t, app, http.MethodPost, "/api/assignments", teacherToken, map[string]interface{}{
			"course_id": course.ID,
			"title":     "Bad Marks",
			"due_date":  time.Now().Add(24 * time.Hour),
			"max_marks": marks,
		})
		if status != http.StatusBadRequest {
			t.Errorf("expected 400 for max_marks %d, got %d", marks, status)
		}
		if env.Error == nil || env.Error.Code != "INVALID_INPUT" {
			t.Errorf("expected INVALID_INPUT for max_marks %d, got %+v", marks, env.Error)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	app, _ := integrationApp(t)

	token, _ := signupUser(t, app, "student", "Leaver")

	status, env := doJSON(t, app, http.MethodGet, "/api/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile before logout returned %d: %s", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/logout", token, nil)
	if status != http.StatusOK {
		t.Fatalf("logout returned %d: %s", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodGet, "/api/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %+v", env.Error)
	}
}
