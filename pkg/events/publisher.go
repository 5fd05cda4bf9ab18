// Package events publica eventos de mudança de tarefas numa fila SQS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

// SQSClient define a interface necessária para o publisher (permite Mocking)
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher implementa tasks.Publisher.
type SQSPublisher struct {
	client   SQSClient
	queueURL string
	fifo     bool
}

func NewSQSPublisher(client SQSClient, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}
}

// New cria o publisher configurado, ou nil quando TASK_EVENTS_QUEUE_URL
// não está definido.
func New(ctx context.Context, cfg *config.Config) (*SQSPublisher, error) {
	if cfg.Events.QueueURL == "" {
		return nil, nil
	}

	awsCfg, err := config.AWS(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	return NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.Events.QueueURL), nil
}

// Publish envia o evento como JSON. Em filas FIFO o grupo é o usuário,
// preservando a ordem das mudanças de cada partição.
func (p *SQSPublisher) Publish(ctx context.Context, event tasks.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	}
	if p.fifo {
		input.MessageGroupId = aws.String(event.UserID)
		input.MessageDeduplicationId = aws.String(fmt.Sprintf("%s-%s-%d", event.TaskID, event.Type, event.OccurredAt.UnixNano()))
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("events: send message: %w", err)
	}
	return nil
}
