package pdfvalidation

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"
)

func buildFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
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

	return form.File["file"][0]
}

func TestValidatePDFFileRejectsOversized(t *testing.T) {
	fh := &multipart.FileHeader{
		Filename: "big.pdf",
		Size:     int64(SubmissionLimits.MaxFileSizeMB)*1024*1024 + 1,
	}

	result, err := ValidatePDFFile(fh, SubmissionLimits)
	if err != nil {
		t.Fatalf("ValidatePDFFile failed: %v", err)
	}
	if result.Valid {
		t.Error("expected an oversized file to be invalid")
	}
	if !strings.Contains(result.Error, "exceeds maximum allowed size") {
		t.Errorf("unexpected error message: %s", result.Error)
	}
}

func TestValidatePDFFileRejectsWrongExtension(t *testing.T) {
	fh := &multipart.FileHeader{Filename: "notes.docx", Size: 1024}

	result, err := ValidatePDFFile(fh, SubmissionLimits)
	if err != nil {
		t.Fatalf("ValidatePDFFile failed: %v", err)
	}
	if result.Valid {
		t.Error("expected a non-pdf extension to be invalid")
	}
}

func TestValidatePDFFileRejectsMissingHeader(t *testing.T) {
	fh := buildFileHeader(t, "fake.pdf", []byte("just some text"))

	result, err := ValidatePDFFile(fh, SubmissionLimits)
	if err != nil {
		t.Fatalf("ValidatePDFFile failed: %v", err)
	}
	if result.Valid {
		t.Error("expected a file without the PDF header to be invalid")
	}
	if !strings.Contains(result.Error, "missing PDF header") {
		t.Errorf("unexpected error message: %s", result.Error)
	}
}

func TestValidatePDFFileRejectsUnparseable(t *testing.T) {
	fh := buildFileHeader(t, "broken.pdf", []byte("%PDF-1.7\nnot a real structure"))

	result, err := ValidatePDFFile(fh, SubmissionLimits)
	if err != nil {
		t.Fatalf("ValidatePDFFile failed: %v", err)
	}
	if result.Valid {
		t.Error("expected an unparseable pdf to be invalid")
	}
}

func TestSanitizePDFTrimsTrailingGarbage(t *testing.T) {
	content := []byte("%PDF-1.4\nbody\n%%EOF\nGARBAGE AFTER EOF")
	cleaned := sanitizePDF(content)

	if bytes.Contains(cleaned, []byte("GARBAGE")) {
		t.Error("expected trailing garbage to be removed")
	}
	if !bytes.HasSuffix(bytes.TrimRight(cleaned, "\r\n"), []byte("%%EOF")) {
		t.Errorf("expected content to end at the EOF marker, got %q", cleaned)
	}
}

func TestSanitizePDFLeavesCleanFilesAlone(t *testing.T) {
	content := []byte("%PDF-1.4\nbody\n%%EOF\n")
	cleaned := sanitizePDF(content)

	if !bytes.Equal(cleaned, content) {
		t.Errorf("expected clean content unchanged, got %q", cleaned)
	}

	// Non-PDF content passes through untouched
	other := []byte("not a pdf at all")
	if !bytes.Equal(sanitizePDF(other), other) {
		t.Error("expected non-pdf content unchanged")
	}
}
