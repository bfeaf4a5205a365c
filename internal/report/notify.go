package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "risk-assessment/internal/common/aws"
	apperrors "risk-assessment/internal/common/errors"
)

// SNS subjects are limited to 100 characters.
const maxSubjectLen = 100

// SNSNotifier publishes a report summary to a topic.
type SNSNotifier struct {
	client   awsclient.SNSService
	topicARN string
}

func NewSNSNotifier(client awsclient.SNSService, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Name() string { return "sns" }

func (n *SNSNotifier) Publish(ctx context.Context, r *Report) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject(r)),
		Message:  aws.String(body(r)),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	return nil
}

// EmailNotifier sends the report through SES.
type EmailNotifier struct {
	client awsclient.SESService
	from   string
	to     []string
}

func NewEmailNotifier(client awsclient.SESService, from string, to []string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, to: to}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Publish(ctx context.Context, r *Report) error {
	text := body(r)
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: n.to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject(r))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func subject(r *Report) string {
	s := fmt.Sprintf("Risk assessment %s", r.RunID)
	if len(s) > maxSubjectLen {
		s = s[:maxSubjectLen]
	}
	return s
}

func body(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Rows kept: %d of %d\n", r.RowsKept, r.RowsLoaded)
	fmt.Fprintf(&b, "Model: %s\n", r.Model)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	b.WriteString(r.Insights)
	return b.String()
}
