// internal/common/aws/aws_test.go
package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestTextEmail(t *testing.T) {
	in := TextEmail("noreply@example.com", "retention@example.com", "subject", "body")

	assert.Equal(t, "noreply@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"retention@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "subject", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "body", aws.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
}

func TestTopicMessage(t *testing.T) {
	in := TopicMessage("arn:aws:sns:eu-west-3:123:retention", "subject", "msg")

	assert.Equal(t, "arn:aws:sns:eu-west-3:123:retention", aws.ToString(in.TopicArn))
	assert.Equal(t, "subject", aws.ToString(in.Subject))
	assert.Equal(t, "msg", aws.ToString(in.Message))
	assert.Nil(t, in.PhoneNumber)
}
