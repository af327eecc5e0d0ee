package composer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"

	"github.com/voicetyped/composer/pkg/dialog"
	"github.com/voicetyped/composer/pkg/events"
)

// CacheInvalidator drops cached templates of a container.
type CacheInvalidator interface {
	Invalidate(containerID string)
}

// Subscriber implements queue.SubscribeWorker to keep instances that share a
// template datastore and dialog directory consistent with each other.
type Subscriber struct {
	Service *Service
	Cache   CacheInvalidator
	Pool    workerpool.WorkerPool
}

// Handle is called by frame's pub/sub for each event message.
func (s *Subscriber) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("composer subscriber: unmarshal envelope")
		return err
	}

	switch env.Type {
	case events.TemplateForked, events.TemplateUpdated, events.TemplateDeleted:
		if s.Cache != nil {
			s.Cache.Invalidate(env.Container)
		}
	case events.DialogsReloaded:
		loader := s.Service.Loader()
		if loader == nil {
			return nil
		}
		s.submit(ctx, func() { s.reload(ctx, loader) })
	}
	return nil
}

func (s *Subscriber) reload(ctx context.Context, loader *dialog.Loader) {
	if _, err := loader.LoadAll(); err != nil {
		util.Log(ctx).WithError(err).Error("composer subscriber: reload dialogs")
		return
	}
	s.Service.LintDialogs(ctx)
}

func (s *Subscriber) submit(ctx context.Context, fn func()) {
	if s.Pool == nil {
		go fn()
		return
	}
	if err := s.Pool.Submit(ctx, fn); err != nil {
		slog.WarnContext(ctx, "composer subscriber: pool full, running inline")
		fn()
	}
}
