package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Registered for image.Decode
	"image/jpeg"
	_ "image/png" // Registered for image.Decode
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/CJang10/my-style-ai/internal/config"
	"github.com/CJang10/my-style-ai/internal/email"
	"github.com/CJang10/my-style-ai/internal/services"
	"github.com/CJang10/my-style-ai/internal/storage"
)

// Task types.
const (
	TypeImageThumbnail = "image:thumbnail"
	TypeImageCleanup   = "image:cleanup"
	TypeRequestNotify  = "request:notify"
	TypeOrphanCascade  = "request:orphan_cascade"
)

// Notification events carried by request:notify payloads. They match the
// user's notification preference keys.
const (
	EventRequestReceived = "request_received"
	EventRequestUpdated  = "request_updated"
)

// NewClient creates an asynq client for enqueuing tasks.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// TaskProcessor handles the processing of tasks. It holds the dependencies
// the task handlers need.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	storageService storage.IStorage
	itemService    services.IItemService
	requestService services.IRequestService
	userService    services.IUserService
	s3Client       *s3.Client
}

// NewTaskProcessor creates the processor with its dependencies.
func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IStorage,
	itemService services.IItemService,
	requestService services.IRequestService,
	userService services.IUserService,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		storageService: storageService,
		itemService:    itemService,
		requestService: requestService,
		userService:    userService,
		s3Client:       s3Client,
	}
}

// SetupServer configures an asynq server, registers the handlers and starts
// processing. The returned server is running; the caller owns its Shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, error) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageThumbnail, processor.HandleImageThumbnailTask)
	mux.HandleFunc(TypeImageCleanup, processor.HandleImageCleanupTask)
	mux.HandleFunc(TypeRequestNotify, processor.HandleRequestNotifyTask)
	mux.HandleFunc(TypeOrphanCascade, processor.HandleOrphanCascadeTask)
	log.Println("Registered background task handlers.")

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("could not start task server: %w", err)
	}
	return srv, nil
}

// ImageThumbnailPayload carries the item photo to thumbnail.
type ImageThumbnailPayload struct {
	ItemID string `json:"item_id"`
	S3Key  string `json:"s3_key"`
}

// ThumbKeyFor derives the thumbnail object key from the original's key.
func ThumbKeyFor(s3Key string) string {
	base := s3Key
	if idx := strings.LastIndex(base, "."); idx > strings.LastIndex(base, "/") {
		base = base[:idx]
	}
	return base + "_thumb.jpg"
}

// HandleImageThumbnailTask downloads the uploaded item photo, scales it down
// and stores the thumbnail next to the original.
func (p *TaskProcessor) HandleImageThumbnailTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageThumbnailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal thumbnail task payload: %v: %w", err, asynq.SkipRetry)
	}

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload never completed.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ThumbMaxDimension)
	thumb := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumbKey := ThumbKeyFor(payload.S3Key)
	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(thumbKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail %s: %w", thumbKey, err)
	}

	if err := p.itemService.SetThumbKey(ctx, payload.ItemID, thumbKey); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// Item deleted while we were resizing; cleanup will collect the keys.
			log.Printf("Item %s gone, thumbnail %s orphaned.", payload.ItemID, thumbKey)
			return nil
		}
		return fmt.Errorf("failed to record thumbnail for item %s: %w", payload.ItemID, err)
	}

	log.Printf("Thumbnail task processed: Key=%s, ItemID=%s", thumbKey, payload.ItemID)
	return nil
}

// ImageCleanupPayload lists object keys to delete after an item is removed.
type ImageCleanupPayload struct {
	Keys []string `json:"keys"`
}

// HandleImageCleanupTask removes the stored objects of a deleted item.
func (p *TaskProcessor) HandleImageCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cleanup task payload: %v: %w", err, asynq.SkipRetry)
	}

	for _, key := range payload.Keys {
		if err := p.storageService.DeleteObject(ctx, key); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", key, err)
		}
	}
	log.Printf("Cleanup task processed: %d object(s) removed.", len(payload.Keys))
	return nil
}

// RequestNotifyPayload drives a notification email about request activity.
type RequestNotifyPayload struct {
	RecipientID string `json:"recipient_id"`
	Event       string `json:"event"` // request_received or request_updated
	ItemName    string `json:"item_name"`
	FromName    string `json:"from_name,omitempty"`
	Status      string `json:"status,omitempty"` // Set for request_updated
}

// HandleRequestNotifyTask emails a party about request activity, respecting
// the recipient's notification preferences.
func (p *TaskProcessor) HandleRequestNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload RequestNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify task payload: %v: %w", err, asynq.SkipRetry)
	}

	recipient, err := p.userService.FindByID(ctx, payload.RecipientID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("notification recipient gone: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load notification recipient: %w", err)
	}
	if !recipient.WantsNotification(payload.Event) {
		log.Printf("User %s opted out of %s notifications, skipping.", recipient.ID, payload.Event)
		return nil
	}

	var subject, body string
	switch payload.Event {
	case EventRequestReceived:
		subject = fmt.Sprintf("New request for your %s", payload.ItemName)
		body = fmt.Sprintf("%s wants your %s. Open %s to respond.", payload.FromName, payload.ItemName, p.cfg.AppName)
	case EventRequestUpdated:
		subject = fmt.Sprintf("Your request for %s was %s", payload.ItemName, payload.Status)
		body = fmt.Sprintf("Your request for %s is now %s. Open %s for details.", payload.ItemName, payload.Status, p.cfg.AppName)
	default:
		return fmt.Errorf("unknown notification event %q: %w", payload.Event, asynq.SkipRetry)
	}

	if err := p.emailSender.Send(ctx, []string{recipient.Email}, subject, body); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

// OrphanCascadePayload identifies a deleted item whose open requests must be
// cancelled.
type OrphanCascadePayload struct {
	ItemID string `json:"item_id"`
}

// HandleOrphanCascadeTask cancels every open request that still references a
// deleted item.
func (p *TaskProcessor) HandleOrphanCascadeTask(ctx context.Context, t *asynq.Task) error {
	var payload OrphanCascadePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cascade task payload: %v: %w", err, asynq.SkipRetry)
	}

	cancelled, err := p.requestService.CancelOpenForItem(ctx, payload.ItemID)
	if err != nil {
		return fmt.Errorf("failed to cascade item %s deletion: %w", payload.ItemID, err)
	}
	log.Printf("Cascade task processed: item %s, %d request(s) cancelled.", payload.ItemID, cancelled)
	return nil
}
