// Package composer ties the action copy engine to a template store, the
// dialog loader and the event bus.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voicetyped/composer/pkg/adaptive"
	"github.com/voicetyped/composer/pkg/dialog"
	"github.com/voicetyped/composer/pkg/events"
	"github.com/voicetyped/composer/pkg/lg"
	"github.com/voicetyped/composer/pkg/templatestore"
)

var (
	ErrInvalidAction  = errors.New("action must be an object with a $type")
	ErrDialogNotFound = errors.New("dialog not found")
	ErrActionNotFound = errors.New("action not found")
	ErrNoDialogs      = errors.New("no dialog directory configured")
)

// Service implements the composer operations.
type Service struct {
	store     templatestore.Store
	loader    *dialog.Loader
	publisher *events.Publisher
	schemes   []lg.NamingScheme
}

// NewService creates a composer service. loader and publisher may be nil; no
// schemes selects lg.DefaultSchemes.
func NewService(store templatestore.Store, loader *dialog.Loader, publisher *events.Publisher, schemes ...lg.NamingScheme) *Service {
	if len(schemes) == 0 {
		schemes = lg.DefaultSchemes
	}
	return &Service{
		store:     store,
		loader:    loader,
		publisher: publisher,
		schemes:   schemes,
	}
}

// Loader returns the dialog loader, or nil.
func (s *Service) Loader() *dialog.Loader {
	return s.loader
}

// Store returns the template store.
func (s *Service) Store() templatestore.Store {
	return s.store
}

// Publisher returns the event publisher, or nil.
func (s *Service) Publisher() *events.Publisher {
	return s.publisher
}

// PutTemplate writes a template and announces it so peers drop their cached
// copy of the container.
func (s *Service) PutTemplate(ctx context.Context, container, name, body string) error {
	if err := s.store.UpdateTemplate(ctx, container, name, body); err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}
	s.emit(ctx, events.TemplateUpdated, container, events.TemplateUpdatedData{Name: name})
	return nil
}

// DeleteTemplates removes templates by name regardless of who owns them.
func (s *Service) DeleteTemplates(ctx context.Context, container string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := s.store.DeleteTemplates(ctx, container, names); err != nil {
		return fmt.Errorf("delete templates: %w", err)
	}
	s.emit(ctx, events.TemplateDeleted, container, events.TemplateDeletedData{Names: names})
	return nil
}

// CopyResult is the outcome of a copy.
type CopyResult struct {
	Action any
	Forked int
}

// CopyAction copies action, forking the composer-owned templates it uses in
// container. Bare dialog names are returned unchanged.
func (s *Service) CopyAction(ctx context.Context, container string, action any) (CopyResult, error) {
	if name, ok := action.(string); ok {
		return CopyResult{Action: name}, nil
	}
	if adaptive.TypeOf(action) == "" {
		return CopyResult{}, ErrInvalidAction
	}
	return s.copy(ctx, container, action), nil
}

// CopyDialogAction copies the action with designerID out of a loaded dialog.
func (s *Service) CopyDialogAction(ctx context.Context, container, dialogName, designerID string) (CopyResult, error) {
	if s.loader == nil {
		return CopyResult{}, ErrNoDialogs
	}
	d, ok := s.loader.Get(dialogName)
	if !ok {
		return CopyResult{}, fmt.Errorf("%w: %q", ErrDialogNotFound, dialogName)
	}
	action, ok := d.FindAction(designerID)
	if !ok {
		return CopyResult{}, fmt.Errorf("%w: %q in dialog %q", ErrActionNotFound, designerID, dialogName)
	}
	return s.copy(ctx, container, action), nil
}

func (s *Service) copy(ctx context.Context, container string, action any) CopyResult {
	host := NewHost(container, lg.NewForker(s.store, s.schemes...), s.emit)
	out := adaptive.CopyAction(ctx, action, host)

	s.emit(ctx, events.ActionCopied, container, events.ActionCopiedData{
		SourceID: adaptive.DesignerID(action),
		CopyID:   adaptive.DesignerID(out),
		Type:     adaptive.TypeOf(action),
		Forked:   host.Forked(),
	})
	return CopyResult{Action: out, Forked: host.Forked()}
}

// DeleteAction removes the composer-owned templates referenced by action and
// its nested actions from container, returning the names deleted. Templates
// authored by users are left alone.
func (s *Service) DeleteAction(ctx context.Context, container string, action any) ([]string, error) {
	if adaptive.TypeOf(action) == "" {
		return nil, ErrInvalidAction
	}

	var owned []string
	for _, name := range adaptive.CollectTemplateRefs(action) {
		if lg.OwnedBy(name, s.schemes) {
			owned = append(owned, name)
		}
	}

	if len(owned) > 0 {
		if err := s.store.DeleteTemplates(ctx, container, owned); err != nil {
			return nil, fmt.Errorf("delete templates of %s: %w", adaptive.DesignerID(action), err)
		}
		s.emit(ctx, events.TemplateDeleted, container, events.TemplateDeletedData{Names: owned})
	}

	s.emit(ctx, events.ActionDeleted, container, events.ActionDeletedData{
		DesignerID: adaptive.DesignerID(action),
		Type:       adaptive.TypeOf(action),
		Templates:  owned,
	})
	return owned, nil
}

// TemplateRefs returns the templates referenced by action and the actions
// nested in it.
func (s *Service) TemplateRefs(action any) []string {
	if list, ok := action.([]any); ok {
		return adaptive.CollectTemplateRefsList(list)
	}
	return adaptive.CollectTemplateRefs(action)
}

// Lint reports nested action lists that copy and walk skip over.
func (s *Service) Lint(ctx context.Context, name string, root any) []adaptive.Gap {
	gaps := adaptive.FindUnregisteredComposites(root)
	for _, g := range gaps {
		slog.WarnContext(ctx, "actions under unregistered type are not copied",
			slog.String("dialog", name),
			slog.String("type", g.Type),
			slog.String("designer_id", g.DesignerID),
			slog.String("field", g.Field))
	}
	return gaps
}

// LintDialogs lints the trigger actions of every loaded dialog. Triggers
// themselves are not actions and are not reported. Dialogs without gaps are
// omitted.
func (s *Service) LintDialogs(ctx context.Context) map[string][]adaptive.Gap {
	out := make(map[string][]adaptive.Gap)
	if s.loader == nil {
		return out
	}
	for name, d := range s.loader.All() {
		var lists []any
		for _, trigger := range d.Triggers() {
			lists = append(lists, trigger["actions"])
		}
		if gaps := s.Lint(ctx, name, lists); len(gaps) > 0 {
			out[name] = gaps
		}
	}
	return out
}

func (s *Service) emit(ctx context.Context, et events.EventType, container string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, et, container, data); err != nil {
		slog.WarnContext(ctx, "event publish failed",
			slog.String("event_type", string(et)),
			slog.String("error", err.Error()))
	}
}
