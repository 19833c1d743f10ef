package tilepack

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ParseS3URL splits an s3://bucket/key URL.
func ParseS3URL(raw string) (bucket string, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// URL, got %q", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("S3 URL %q needs both a bucket and a key", raw)
	}
	return u.Host, key, nil
}

// PublishToS3 uploads the database at path to dest, an s3://bucket/key URL.
// Credentials and region come from the shared AWS config.
func PublishToS3(path string, dest string) error {
	bucket, key, err := ParseS3URL(dest)
	if err != nil {
		return err
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	uploader := s3manager.NewUploader(sess)
	_, err = uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s, %w", path, bucket, key, err)
	}
	return nil
}
