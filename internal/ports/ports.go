package ports

import (
	"context"

	"ElectionWatcher/internal/domain"
)

// PageFetcher downloads a single page body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Attachment is a file sent along with a notification.
type Attachment struct {
	Name string
	Path string
}

// Message is one notification to the result channel.
type Message struct {
	Content    string
	Attachment *Attachment
}

// Notifier delivers announcements to Discord, Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// RenderRequest carries everything the image renderer needs for one region.
type RenderRequest struct {
	District     string
	Record       domain.Record
	ArtifactPath string
}

// Renderer turns a finalized record into an image and returns its path.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// Translator localizes district names for rendered images.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Confirmer asks an operator whether a region should be dispatched.
type Confirmer interface {
	Confirm(ctx context.Context, region string, record domain.Record) (bool, error)
}

// RecordPublisher streams dispatched records to downstream consumers.
type RecordPublisher interface {
	Publish(ctx context.Context, site string, record domain.Record) error
	Close() error
}

// DispatchRepository keeps the audit trail of dispatched records.
type DispatchRepository interface {
	SaveDispatch(ctx context.Context, entry domain.DispatchEntry) error
	ListDispatches(ctx context.Context, site string, limit uint64) ([]domain.DispatchEntry, error)
}

// Scheduler controls when poll cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}

// CycleObserver receives poller events for metrics.
type CycleObserver interface {
	CycleFinished(site string, err error)
	RegionDispatched(site string)
	DispatchFailed(site, stage string)
	FieldWarnings(site string, count int)
}
