package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/pdfvalidation"
)

// buildFileHeader produces a real parsed *multipart.FileHeader backed by
// the given content
func buildFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", name)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing part failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer failed: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"][0]
}

func TestValidateUploadBatchEmpty(t *testing.T) {
	s := NewUploadService(nil, nil)

	err := s.ValidateUploadBatch(nil, pdfvalidation.SubmissionLimits)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for an empty batch, got %v", err)
	}
}

func TestValidateUploadBatchTooManyFiles(t *testing.T) {
	s := NewUploadService(nil, nil)

	files := make([]*multipart.FileHeader, 0, MaxFilesPerUpload+1)
	for i := 0; i <= MaxFilesPerUpload; i++ {
		files = append(files, &multipart.FileHeader{Filename: "notes.txt", Size: 128})
	}

	err := s.ValidateUploadBatch(files, pdfvalidation.SubmissionLimits)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for %d files, got %v", len(files), err)
	}
}

func TestValidateUploadBatchAtLimit(t *testing.T) {
	s := NewUploadService(nil, nil)

	files := make([]*multipart.FileHeader, 0, MaxFilesPerUpload)
	for i := 0; i < MaxFilesPerUpload; i++ {
		files = append(files, &multipart.FileHeader{Filename: "notes.txt", Size: 128})
	}

	if err := s.ValidateUploadBatch(files, pdfvalidation.SubmissionLimits); err != nil {
		t.Errorf("expected %d files to pass, got %v", MaxFilesPerUpload, err)
	}
}

func TestValidateUploadBatchOversizedFile(t *testing.T) {
	s := NewUploadService(nil, nil)

	files := []*multipart.FileHeader{
		{Filename: "small.txt", Size: 128},
		{Filename: "huge.txt", Size: MaxFileSizeBytes + 1},
	}

	err := s.ValidateUploadBatch(files, pdfvalidation.SubmissionLimits)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for an oversized file, got %v", err)
	}

	// Exactly at the limit is allowed
	files = []*multipart.FileHeader{{Filename: "exact.txt", Size: MaxFileSizeBytes}}
	if err := s.ValidateUploadBatch(files, pdfvalidation.SubmissionLimits); err != nil {
		t.Errorf("expected a file at the size limit to pass, got %v", err)
	}
}

func TestValidateUploadBatchCorruptPDF(t *testing.T) {
	s := NewUploadService(nil, nil)

	// Carries the PDF header but no parseable structure
	fh := buildFileHeader(t, "broken.pdf", []byte("%PDF-1.4 not actually a pdf"))

	err := s.ValidateUploadBatch([]*multipart.FileHeader{fh}, pdfvalidation.SubmissionLimits)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for a corrupt pdf, got %v", err)
	}
}

func TestValidateUploadBatchMissingPDFHeader(t *testing.T) {
	s := NewUploadService(nil, nil)

	fh := buildFileHeader(t, "fake.pdf", []byte("plain text pretending"))

	err := s.ValidateUploadBatch([]*multipart.FileHeader{fh}, pdfvalidation.SubmissionLimits)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for a fake pdf, got %v", err)
	}
}

func TestSaveProfilePhotoRejectsBadType(t *testing.T) {
	s := NewUploadService(nil, nil)
	user := &model.User{ID: 1}

	fh := &multipart.FileHeader{Filename: "malware.exe", Size: 1024}
	_, err := s.SaveProfilePhoto(context.Background(), user, fh)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for a non-image, got %v", err)
	}
}

func TestSaveProfilePhotoRejectsOversized(t *testing.T) {
	s := NewUploadService(nil, nil)
	user := &model.User{ID: 1}

	fh := &multipart.FileHeader{Filename: "me.png", Size: MaxPhotoSizeBytes + 1}
	_, err := s.SaveProfilePhoto(context.Background(), user, fh)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for an oversized photo, got %v", err)
	}
}

func TestUploadWithoutStorageConfigured(t *testing.T) {
	s := NewUploadService(nil, nil)
	user := &model.User{ID: 1}

	// Valid photo, but no storage client wired
	fh := &multipart.FileHeader{Filename: "me.png", Size: 1024}
	_, err := s.SaveProfilePhoto(context.Background(), user, fh)
	if !errors.Is(err, ErrRemoteUpload) {
		t.Errorf("expected ErrRemoteUpload without a storage client, got %v", err)
	}
}
