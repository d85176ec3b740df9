package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services/storage"
	"github.com/sahilchouksey/classbridge-api/utils/pdfvalidation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Upload limits, enforced before any remote transfer
const (
	MaxFilesPerUpload = 5
	MaxFileSizeBytes  = 20 * 1024 * 1024 // 20 MB per file
	MaxPhotoSizeBytes = 5 * 1024 * 1024  // 5 MB profile photo
)

// ErrRemoteUpload marks a failed transfer to the object store; handlers
// map it to the upload error response. ErrInvalidFile marks a pre-transfer
// rejection (count, size, type, structure) and maps to invalid input.
var (
	ErrRemoteUpload = errors.New("remote storage upload failed")
	ErrInvalidFile  = errors.New("invalid file")
)

var photoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadService owns every path that moves files between clients, the
// database and the object store: assignment submissions, course materials
// and profile photos.
type UploadService struct {
	db           *gorm.DB
	spacesClient *storage.SpacesClient
}

// NewUploadService creates a new upload service
func NewUploadService(db *gorm.DB, spacesClient *storage.SpacesClient) *UploadService {
	return &UploadService{
		db:           db,
		spacesClient: spacesClient,
	}
}

// ValidateUploadBatch checks count and per-file size before any transfer.
// PDF files additionally get a structural check so corrupt uploads are
// rejected while they are still cheap to reject.
func (s *UploadService) ValidateUploadBatch(files []*multipart.FileHeader, limits pdfvalidation.PDFLimits) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files provided", ErrInvalidFile)
	}
	if len(files) > MaxFilesPerUpload {
		return fmt.Errorf("%w: %d files provided, maximum is %d per request", ErrInvalidFile, len(files), MaxFilesPerUpload)
	}

	for _, fh := range files {
		if fh.Size > MaxFileSizeBytes {
			return fmt.Errorf("%w: %s exceeds the %dMB limit", ErrInvalidFile, fh.Filename, MaxFileSizeBytes/(1024*1024))
		}
		if strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			result, err := pdfvalidation.ValidatePDFFile(fh, limits)
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", fh.Filename, err)
			}
			if !result.Valid {
				return fmt.Errorf("%w: %s: %s", ErrInvalidFile, fh.Filename, result.Error)
			}
		}
	}

	return nil
}

// SaveSubmissionFiles uploads the batch sequentially and then records it
// against the student's submission for the assignment. First upload
// creates the submission with the late flag computed against the due
// date; later uploads append files and refresh the timestamp and late
// flag, leaving score and feedback untouched.
//
// A failed transfer aborts the request without touching the database;
// objects already transferred stay in the bucket and are recorded as
// orphans for the reaper.
func (s *UploadService) SaveSubmissionFiles(ctx context.Context, assignment *model.Assignment, studentID uint, files []*multipart.FileHeader) (*model.Submission, error) {
	prefix := fmt.Sprintf("%s/%d/%d", storage.PrefixSubmissions, assignment.ID, studentID)

	uploaded, err := s.transferBatch(ctx, prefix, files)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	late := assignment.IsPastDue(now)

	var submission model.Submission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("assignment_id = ? AND student_id = ?", assignment.ID, studentID).
			First(&submission).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			submission = model.Submission{
				AssignmentID: assignment.ID,
				StudentID:    studentID,
				SubmittedAt:  now,
				Late:         late,
			}
			if err := tx.Create(&submission).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Existing submission: refresh timestamp and late flag,
			// preserve score and feedback
			err := tx.Model(&submission).
				Updates(map[string]interface{}{"submitted_at": now, "late": late}).Error
			if err != nil {
				return err
			}
		}

		rows := make([]model.SubmissionFile, 0, len(uploaded))
		for _, f := range uploaded {
			rows = append(rows, model.SubmissionFile{
				SubmissionID: submission.ID,
				FileName:     f.FileName,
				FileURL:      f.FileURL,
				FileKey:      f.FileKey,
				FileType:     f.FileType,
				FileSize:     f.FileSize,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		s.recordOrphans(ctx, uploaded, "upload_rollback", err.Error())
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	// Reload with the full file list
	err = s.db.WithContext(ctx).Preload("Files").First(&submission, submission.ID).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// DeleteSubmissionFile removes one file from a submission by its URL. The
// database row goes first; the remote delete is best effort and a failure
// leaves an orphan record behind instead of failing the request.
func (s *UploadService) DeleteSubmissionFile(ctx context.Context, submission *model.Submission, fileURL string) (*model.Submission, error) {
	var file model.SubmissionFile
	err := s.db.WithContext(ctx).
		Where("submission_id = ? AND file_url = ?", submission.ID, fileURL).
		First(&file).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&file).Error; err != nil {
		return nil, err
	}

	s.deleteRemote(ctx, file.FileKey)

	var updated model.Submission
	err = s.db.WithContext(ctx).Preload("Files").First(&updated, submission.ID).Error
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SaveCourseMaterial uploads one study file and attaches it to the course
func (s *UploadService) SaveCourseMaterial(ctx context.Context, course *model.Course, uploaderID uint, fh *multipart.FileHeader) (*model.CourseMaterial, error) {
	prefix := fmt.Sprintf("%s/%d", storage.PrefixMaterials, course.ID)

	uploaded, err := s.transferBatch(ctx, prefix, []*multipart.FileHeader{fh})
	if err != nil {
		return nil, err
	}

	material := model.CourseMaterial{
		CourseID:   course.ID,
		UploaderID: uploaderID,
		FileName:   uploaded[0].FileName,
		FileURL:    uploaded[0].FileURL,
		FileKey:    uploaded[0].FileKey,
		FileType:   uploaded[0].FileType,
		FileSize:   uploaded[0].FileSize,
	}
	if err := s.db.WithContext(ctx).Create(&material).Error; err != nil {
		s.recordOrphans(ctx, uploaded, "upload_rollback", err.Error())
		return nil, fmt.Errorf("failed to record material: %w", err)
	}

	return &material, nil
}

// SaveProfilePhoto uploads a new photo for the user and replaces the old
// one. The previous object is deleted best effort.
func (s *UploadService) SaveProfilePhoto(ctx context.Context, user *model.User, fh *multipart.FileHeader) (*model.User, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !photoExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported photo type %s", ErrInvalidFile, ext)
	}
	if fh.Size > MaxPhotoSizeBytes {
		return nil, fmt.Errorf("%w: photo exceeds the %dMB limit", ErrInvalidFile, MaxPhotoSizeBytes/(1024*1024))
	}

	prefix := fmt.Sprintf("%s/%d", storage.PrefixProfiles, user.ID)
	uploaded, err := s.transferBatch(ctx, prefix, []*multipart.FileHeader{fh})
	if err != nil {
		return nil, err
	}

	oldKey := user.PhotoKey
	updates := map[string]interface{}{
		"photo_url": uploaded[0].FileURL,
		"photo_key": uploaded[0].FileKey,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		s.recordOrphans(ctx, uploaded, "upload_rollback", err.Error())
		return nil, fmt.Errorf("failed to update profile photo: %w", err)
	}

	if oldKey != "" {
		s.deleteRemote(ctx, oldKey)
	}

	user.PhotoURL = uploaded[0].FileURL
	user.PhotoKey = uploaded[0].FileKey
	return user, nil
}

// transferBatch uploads the files one after another (a multi-file request
// scales linearly with file count) and returns their records. On failure
// the objects already transferred are recorded as orphans and the error
// wraps ErrRemoteUpload.
func (s *UploadService) transferBatch(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]storage.UploadedFile, error) {
	if s.spacesClient == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrRemoteUpload)
	}

	uploaded := make([]storage.UploadedFile, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			s.recordOrphans(ctx, uploaded, "upload_rollback", err.Error())
			return nil, fmt.Errorf("%w: cannot open %s: %v", ErrRemoteUpload, fh.Filename, err)
		}

		key := storage.GenerateKey(prefix, fh.Filename)
		contentType := storage.GetContentType(fh.Filename)

		url, err := s.spacesClient.UploadFile(ctx, key, src, contentType)
		src.Close()
		if err != nil {
			s.recordOrphans(ctx, uploaded, "upload_rollback", err.Error())
			return nil, fmt.Errorf("%w: %s: %v", ErrRemoteUpload, fh.Filename, err)
		}

		uploaded = append(uploaded, storage.UploadedFile{
			FileName: fh.Filename,
			FileURL:  url,
			FileKey:  key,
			FileType: contentType,
			FileSize: fh.Size,
		})
	}

	return uploaded, nil
}

// deleteRemote removes an object best effort, leaving an orphan record
// when the store refuses so the reaper can retry later
func (s *UploadService) deleteRemote(ctx context.Context, key string) {
	if s.spacesClient == nil {
		s.recordOrphanKey(ctx, key, "delete_failed", "object storage is not configured")
		return
	}
	if err := s.spacesClient.DeleteFile(ctx, key); err != nil {
		log.Printf("UploadService: remote delete failed for %s: %v", key, err)
		s.recordOrphanKey(ctx, key, "delete_failed", err.Error())
	}
}

func (s *UploadService) recordOrphans(ctx context.Context, files []storage.UploadedFile, reason, lastError string) {
	for _, f := range files {
		s.recordOrphanKey(ctx, f.FileKey, reason, lastError)
	}
}

func (s *UploadService) recordOrphanKey(ctx context.Context, key, reason, lastError string) {
	orphan := model.OrphanedFile{
		FileKey:   key,
		Reason:    reason,
		LastError: lastError,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&orphan).Error
	if err != nil {
		log.Printf("UploadService: failed to record orphaned key %s: %v", key, err)
	}
}
