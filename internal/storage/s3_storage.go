package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Abdullah7175/mustafabackend/internal/config"
)

// IInvoiceArchive defines the interface for archiving rendered invoices.
type IInvoiceArchive interface {
	ArchiveInvoice(ctx context.Context, bookingID string, pdfData []byte) (string, error)
	GeneratePresignedGetURL(ctx context.Context, objectKey string) (string, error)
}

// s3InvoiceArchive implements IInvoiceArchive over S3. When no bucket is
// configured archiving is skipped so deployments without S3 still serve
// invoices inline.
type s3InvoiceArchive struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewInvoiceArchive creates a new S3-backed invoice archive.
func NewInvoiceArchive(cfg *config.Config) (IInvoiceArchive, error) {
	archive := &s3InvoiceArchive{cfg: cfg}
	if cfg.InvoiceS3Bucket == "" {
		log.Println("Invoice S3 bucket not configured, invoice archiving disabled.")
		return archive, nil
	}

	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	archive.s3Client = s3.NewFromConfig(awsCfg)
	archive.presignClient = s3.NewPresignClient(archive.s3Client)
	return archive, nil
}

// ArchiveInvoice uploads the rendered PDF and returns its object key, or ""
// when archiving is disabled.
func (s *s3InvoiceArchive) ArchiveInvoice(ctx context.Context, bookingID string, pdfData []byte) (string, error) {
	if s.s3Client == nil {
		return "", nil
	}

	objectKey := fmt.Sprintf("invoices/%s/INV-%s.pdf", time.Now().UTC().Format("2006"), bookingID)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.InvoiceS3Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(pdfData),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive invoice for booking %s: %w", bookingID, err)
	}
	return objectKey, nil
}

// GeneratePresignedGetURL creates a short-lived download URL for an archived
// invoice.
func (s *s3InvoiceArchive) GeneratePresignedGetURL(ctx context.Context, objectKey string) (string, error) {
	if s.presignClient == nil {
		return "", fmt.Errorf("invoice archive is not configured")
	}

	presignedReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.InvoiceS3Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", objectKey, err)
	}
	return presignedReq.URL, nil
}
