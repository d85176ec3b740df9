package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Key prefixes group uploads by feature inside the bucket
const (
	PrefixSubmissions = "submissions"
	PrefixMaterials   = "materials"
	PrefixProfiles    = "profiles"
)

// UploadedFile describes one object after a successful transfer
type UploadedFile struct {
	FileName string
	FileURL  string
	FileKey  string
	FileType string
	FileSize int64
}

// SpacesClient handles DigitalOcean Spaces operations
type SpacesClient struct {
	s3Client *s3.S3
	bucket   string
	region   string
	endpoint string
	cdnURL   string
}

// SpacesConfig holds configuration for Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// LoadSpacesConfig reads the Spaces configuration from the environment.
// Bucket and region are required; the endpoint defaults to the regional
// Spaces hostname.
func LoadSpacesConfig() (*SpacesConfig, error) {
	config := &SpacesConfig{
		AccessKey: os.Getenv("DO_SPACES_ACCESS_KEY"),
		SecretKey: os.Getenv("DO_SPACES_SECRET_KEY"),
		Bucket:    os.Getenv("DO_SPACES_BUCKET"),
		Region:    os.Getenv("DO_SPACES_REGION"),
		Endpoint:  os.Getenv("DO_SPACES_ENDPOINT"),
		CDNURL:    os.Getenv("DO_SPACES_CDN_ENDPOINT"),
	}

	if config.Bucket == "" || config.Region == "" {
		return nil, fmt.Errorf("DO_SPACES_BUCKET and DO_SPACES_REGION must be configured")
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("DO_SPACES_ACCESS_KEY and DO_SPACES_SECRET_KEY must be configured")
	}

	// Without https:// prefix, used for URL construction
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", config.Region)
	}

	return config, nil
}

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	// Create AWS session with DigitalOcean Spaces endpoint
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return &SpacesClient{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		region:   config.Region,
		endpoint: config.Endpoint,
		cdnURL:   config.CDNURL,
	}, nil
}

// UploadFile uploads a file to Spaces and returns its public URL
func (s *SpacesClient) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"), // Make publicly accessible
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.GetFileURL(key), nil
}

// DeleteFile deletes a file from Spaces
func (s *SpacesClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFileURL returns the public URL for a key, preferring the CDN when set
func (s *SpacesClient) GetFileURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// GenerateKey generates a unique key for file storage
func GenerateKey(prefix, filename string) string {
	timestamp := time.Now().UnixNano()
	ext := filepath.Ext(filename)
	base := sanitizeKeyPart(filename[:len(filename)-len(ext)])

	return fmt.Sprintf("%s/%d_%s%s", prefix, timestamp, base, ext)
}

// sanitizeKeyPart keeps object keys URL-friendly
func sanitizeKeyPart(part string) string {
	part = strings.TrimSpace(part)
	part = strings.ReplaceAll(part, " ", "_")
	part = strings.ReplaceAll(part, "/", "_")
	if part == "" {
		part = "file"
	}
	return part
}

// GetContentType returns the content type for a filename
func GetContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".zip":
		return "application/zip"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
