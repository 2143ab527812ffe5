// internal/notify/aws.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSConfig configures the SES/SNS dispatcher.
type AWSConfig struct {
	Region       string
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

// AWSDispatcher delivers events over SES email and, for high-priority
// events with a phone number, SNS SMS.
type AWSDispatcher struct {
	config    AWSConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	templates map[string]template
}

type template struct {
	subject string
	body    string
}

func NewAWSDispatcher(ctx context.Context, cfg AWSConfig, log logger.Logger) (*AWSDispatcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newAWSDispatcher(cfg, log, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg)), nil
}

func newAWSDispatcher(cfg AWSConfig, log logger.Logger, sesClient SESService, snsClient SNSService) *AWSDispatcher {
	return &AWSDispatcher{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		sesClient: sesClient,
		snsClient: snsClient,
		templates: loadTemplates(),
	}
}

func (d *AWSDispatcher) Dispatch(ctx context.Context, event Event) error {
	tmpl, exists := d.templates[event.Type]
	if !exists {
		return fmt.Errorf("template not found for type: %s", event.Type)
	}

	data := map[string]interface{}{
		"jobId": event.JobID,
		"type":  event.Type,
	}
	for k, v := range event.Metadata {
		data[k] = v
	}

	subject := renderTemplate(tmpl.subject, data)
	body := renderTemplate(tmpl.body, data)
	notificationID := uuid.New().String()

	if d.config.EmailEnabled && event.Recipient != "" {
		if err := d.sendEmail(ctx, event.Recipient, subject, body); err != nil {
			d.logger.Error("email send failed", map[string]interface{}{
				"error":          err,
				"notificationId": notificationID,
				"type":           event.Type,
			})
			return fmt.Errorf("NOTIFICATION_SEND_FAILED: %w", err)
		}
	}

	if d.config.SMSEnabled && event.Phone != "" && event.Priority == PriorityHigh {
		if err := d.sendSMS(ctx, event.Phone, body); err != nil {
			d.logger.Error("SMS send failed", map[string]interface{}{
				"error":          err,
				"notificationId": notificationID,
				"type":           event.Type,
			})
			return fmt.Errorf("NOTIFICATION_SEND_FAILED: %w", err)
		}
	}

	d.logger.Debug("notification dispatched", map[string]interface{}{
		"notificationId": notificationID,
		"type":           event.Type,
	})
	return nil
}

func (d *AWSDispatcher) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(d.config.FromEmail),
	})
	return err
}

func (d *AWSDispatcher) sendSMS(ctx context.Context, to, message string) error {
	_, err := d.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remove any remaining placeholders (missing values)
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loadTemplates() map[string]template {
	return map[string]template{
		TypeApplicationSubmitted: {
			subject: "Application Submitted Successfully",
			body:    "Your application for job {{jobId}} was submitted ({{matchPercentage}}% match).",
		},
		TypeApplicationSkipped: {
			subject: "Application Skipped",
			body:    "Job {{jobId}} was skipped: {{reason}}.",
		},
		TypeApplicationFailed: {
			subject: "Application Failed",
			body:    "Applying to job {{jobId}} failed: {{reason}}.",
		},
		TypeCredentialReset: {
			subject: "Password Reset Required",
			body:    "Your {{platform}} credentials could not be validated. A reset link has been issued and expires at {{expiresAt}}.",
		},
		TypeBatchCompleted: {
			subject: "Auto-Apply Batch Completed",
			body:    "Batch finished: {{submitted}} submitted, {{skipped}} skipped, {{failed}} failed.",
		},
	}
}
