package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestLoginReturnsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body failed: %v", err)
		}
		if body["identifier"] != "ada@example.com" {
			t.Errorf("expected identifier ada@example.com, got %s", body["identifier"])
		}

		writeEnvelope(w, http.StatusOK, `{
			"success": true,
			"data": {
				"user": {"id": 7, "name": "Ada", "email": "ada@example.com", "role": "student"},
				"token": "signed.jwt.token",
				"expires_in": 259200
			}
		}`)
	}))
	defer server.Close()

	c := New(server.URL)
	session, err := c.Login(context.Background(), "ada@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if session.Token != "signed.jwt.token" {
		t.Errorf("expected token from response, got %s", session.Token)
	}
	if session.User.ID != 7 || session.User.Role != "student" {
		t.Errorf("unexpected user: %+v", session.User)
	}
	if session.ExpiresIn != 259200 {
		t.Errorf("expected expires_in 259200, got %d", session.ExpiresIn)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, `{
			"success": false,
			"message": "Email already registered",
			"error": {"code": "CONFLICT", "message": "Email already registered"}
		}`)
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Signup(context.Background(), SignupInput{
		Name: "Ada", Email: "ada@example.com", Password: "password123", Role: "student", RollNumber: "CS-1",
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", apiErr.Status)
	}
	if apiErr.Code != "CONFLICT" {
		t.Errorf("expected code CONFLICT, got %s", apiErr.Code)
	}
	if apiErr.Message != "Email already registered" {
		t.Errorf("unexpected message: %s", apiErr.Message)
	}
}

func TestSessionHeaderAndLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/logout":
			if auth != "Bearer live-token" {
				t.Errorf("expected bearer header on logout, got %q", auth)
			}
			writeEnvelope(w, http.StatusOK, `{"success": true, "message": "Successfully logged out"}`)
		case "/api/me":
			if auth == "" {
				writeEnvelope(w, http.StatusUnauthorized, `{
					"success": false,
					"message": "Authorization header is required",
					"error": {"code": "UNAUTHORIZED", "message": "Authorization header is required"}
				}`)
				return
			}
			writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"id": 1, "name": "Ada"}}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	session := &Session{Token: "live-token"}

	if err := c.Logout(context.Background(), session); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if session.Token != "" {
		t.Error("expected the token to be cleared after logout")
	}

	// A logged-out session no longer authenticates
	_, err := c.GetProfile(context.Background(), session)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", apiErr.Status)
	}
}

func TestSubmitFilesMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assignments/12/submit" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("expected 2 files, got %d", len(files))
		}
		if files[0].Filename != "answer.pdf" {
			t.Errorf("expected answer.pdf, got %s", files[0].Filename)
		}

		writeEnvelope(w, http.StatusCreated, `{
			"success": true,
			"data": {
				"id": 3,
				"assignment_id": 12,
				"late": true,
				"files": [{"file_name": "answer.pdf"}, {"file_name": "notes.txt"}]
			}
		}`)
	}))
	defer server.Close()

	c := New(server.URL)
	session := &Session{Token: "live-token"}

	submission, err := c.SubmitFiles(context.Background(), session, 12, []Upload{
		{Name: "answer.pdf", Reader: strings.NewReader("%PDF-1.4 content")},
		{Name: "notes.txt", Reader: strings.NewReader("notes")},
	})
	if err != nil {
		t.Fatalf("SubmitFiles failed: %v", err)
	}

	if submission.AssignmentID != 12 {
		t.Errorf("expected assignment 12, got %d", submission.AssignmentID)
	}
	if !submission.Late {
		t.Error("expected the late flag from the response")
	}
	if len(submission.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(submission.Files))
	}
}

func TestListCoursesSearchQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "intro to CS" {
			t.Errorf("expected search query, got %q", got)
		}
		writeEnvelope(w, http.StatusOK, `{
			"success": true,
			"data": [{"id": 1, "name": "Intro to CS", "code": "CS101"}]
		}`)
	}))
	defer server.Close()

	c := New(server.URL)
	courses, err := c.ListCourses(context.Background(), &Session{Token: "x"}, "intro to CS")
	if err != nil {
		t.Fatalf("ListCourses failed: %v", err)
	}
	if len(courses) != 1 || courses[0].Code != "CS101" {
		t.Errorf("unexpected courses: %+v", courses)
	}
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	c := New(server.URL)
	_, err := c.ListCourses(context.Background(), nil, "")
	if err == nil {
		t.Fatal("expected a transport error")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failures must not decode into APIError")
	}
}

func TestGradePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding grade body failed: %v", err)
		}
		if body["student_id"].(float64) != 5 {
			t.Errorf("expected student_id 5, got %v", body["student_id"])
		}
		if body["score"].(float64) != 85 {
			t.Errorf("expected score 85, got %v", body["score"])
		}
		if body["feedback"].(string) != "Good job" {
			t.Errorf("expected feedback, got %v", body["feedback"])
		}

		writeEnvelope(w, http.StatusOK, `{
			"success": true,
			"message": "Submission graded successfully",
			"data": {"id": 9, "score": 85, "feedback": "Good job"}
		}`)
	}))
	defer server.Close()

	c := New(server.URL)
	feedback := "Good job"
	submission, err := c.Grade(context.Background(), &Session{Token: "x"}, 12, GradeInput{
		StudentID: 5,
		Score:     85,
		Feedback:  &feedback,
	})
	if err != nil {
		t.Fatalf("Grade failed: %v", err)
	}
	if submission.Score == nil || *submission.Score != 85 {
		t.Errorf("expected score 85, got %v", submission.Score)
	}
	if submission.Feedback == nil || *submission.Feedback != "Good job" {
		t.Errorf("expected feedback round trip, got %v", submission.Feedback)
	}
}
