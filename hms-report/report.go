// Package hmsreport writes periodic chat transcripts to S3, run either as
// a scheduled Lambda or once from the console.
package hmsreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"time"

	hmscli "github.com/ahmadijaz02/hms-go-chat/hms-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
)

// lookbackDays bounds how far GetRawAsOf walks back looking for a report.
const lookbackDays = 5

type GenerateCallback func(ctx context.Context) (interface{}, error)

type Handler struct {
	service    hmscli.Service
	logger     zerolog.Logger
	s3         s3iface.S3API
	reportName string
	generate   GenerateCallback
	now        func() time.Time
}

// ReportKey is {service}/{report}/{day}/{hour}/{timestamp}.json.
func ReportKey(serviceName, reportName string, timestamp time.Time) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v",
		serviceName,
		reportName,
		timestamp.Format(time.DateOnly),
		timestamp.Format("15"),
		timestamp.Format("2006-01-02-15:04:05.json"),
	)
}

func NewHandler(service hmscli.Service, api s3iface.S3API, reportName string, generate GenerateCallback) *Handler {
	return &Handler{
		service:    service,
		logger:     hmscli.Logger(service),
		s3:         api,
		reportName: reportName,
		generate:   generate,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds one report and stores it. Dry runs write to OutFile or
// stdout instead of S3.
func (h *Handler) Generate(ctx context.Context, _ json.RawMessage) error {
	ctx = h.logger.WithContext(ctx)
	h.logger.Info().Str("report", h.reportName).Msg("generating report")

	report, err := h.generate(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to generate report")
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if hmscli.CommonOpts.Dry {
		return h.writeLocal(data)
	}

	key := ReportKey(h.service.Name, h.reportName, h.now())
	h.logger.Info().Str("bucket", ReportOpts.Bucket).Str("key", key).Int("size", len(data)).Msg("saving report to s3")
	_, err = h.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ReportOpts.Bucket),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Key:         aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to save report %v: %w", key, err)
	}
	return nil
}

func (h *Handler) writeLocal(data []byte) error {
	if ReportOpts.OutFile == "" {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			return err
		}
		pretty.WriteByte('\n')
		_, err := os.Stdout.Write(pretty.Bytes())
		return err
	}
	if err := os.MkdirAll(path.Dir(ReportOpts.OutFile), 0755); err != nil {
		return err
	}
	h.logger.Info().Str("filename", ReportOpts.OutFile).Int("size", len(data)).Msg("dry run, saving report locally")
	return os.WriteFile(ReportOpts.OutFile, data, 0644)
}

// GetRawAsOf returns the newest report stored on the day of timestamp,
// falling back a day at a time.
func GetRawAsOf(ctx context.Context, api s3iface.S3API, bucket, serviceName, reportName string, timestamp time.Time) ([]byte, string, error) {
	for attempt := 0; attempt <= lookbackDays; attempt++ {
		prefix := fmt.Sprintf("%v/%v/%v", serviceName, reportName, timestamp.Format(time.DateOnly))
		listOutput, err := api.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int64(1000),
			Prefix:  aws.String(prefix),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to list reports under %v: %w", prefix, err)
		}
		if len(listOutput.Contents) == 0 {
			timestamp = timestamp.AddDate(0, 0, -1)
			continue
		}

		sort.Slice(listOutput.Contents, func(i, j int) bool {
			return aws.StringValue(listOutput.Contents[i].Key) > aws.StringValue(listOutput.Contents[j].Key)
		})
		key := aws.StringValue(listOutput.Contents[0].Key)

		output, err := api.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to get report %v: %w", key, err)
		}
		defer output.Body.Close()

		data, err := io.ReadAll(output.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read report %v: %w", key, err)
		}
		return data, key, nil
	}
	return nil, "", fmt.Errorf("no %v report found in the %v days before %v", reportName, lookbackDays, timestamp.Format(time.DateOnly))
}

// GetLatest decodes the newest stored report into obj.
func GetLatest(ctx context.Context, api s3iface.S3API, bucket, serviceName, reportName string, obj any) (string, error) {
	data, key, err := GetRawAsOf(ctx, api, bucket, serviceName, reportName, time.Now().UTC())
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return "", fmt.Errorf("failed to unmarshal report %v: %w", key, err)
	}
	return key, nil
}

func (h *Handler) Start(ctx context.Context) error {
	if ReportOpts.GetLatest {
		data, _, err := GetRawAsOf(ctx, h.s3, ReportOpts.Bucket, h.service.Name, h.reportName, h.now())
		if err != nil {
			return err
		}
		return h.writeLocal(data)
	}

	if hmscli.CommonOpts.Console {
		return h.Generate(ctx, nil)
	}
	lambda.Start(h.Generate)
	return nil
}
