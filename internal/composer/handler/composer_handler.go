package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/voicetyped/composer/internal/composer"
	"github.com/voicetyped/composer/pkg/templatestore"
)

// ServiceName is the fully-qualified name of the composer service.
const ServiceName = "voicetyped.composer.v1.ComposerService"

// Procedure paths of the composer service.
const (
	CopyActionProcedure   = "/" + ServiceName + "/CopyAction"
	DeleteActionProcedure = "/" + ServiceName + "/DeleteAction"
	TemplateRefsProcedure = "/" + ServiceName + "/TemplateRefs"
	ListDialogsProcedure  = "/" + ServiceName + "/ListDialogs"
)

// ComposerHandler serves the composer operations over Connect. Requests and
// responses are google.protobuf.Struct messages since actions are open JSON.
type ComposerHandler struct {
	svc *composer.Service
}

// NewComposerHandler creates a new composer service handler.
func NewComposerHandler(svc *composer.Service) *ComposerHandler {
	return &ComposerHandler{svc: svc}
}

// NewComposerServiceHandler builds the HTTP handler for every procedure and
// returns the path prefix to mount it on.
func NewComposerServiceHandler(h *ComposerHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(CopyActionProcedure, connect.NewUnaryHandler(CopyActionProcedure, h.CopyAction, opts...))
	mux.Handle(DeleteActionProcedure, connect.NewUnaryHandler(DeleteActionProcedure, h.DeleteAction, opts...))
	mux.Handle(TemplateRefsProcedure, connect.NewUnaryHandler(TemplateRefsProcedure, h.TemplateRefs, opts...))
	mux.Handle(ListDialogsProcedure, connect.NewUnaryHandler(ListDialogsProcedure, h.ListDialogs, opts...))
	return "/" + ServiceName + "/", mux
}

// CopyAction copies {"action": ...} or {"dialog", "designer_id"} into
// {"container"} and returns {"action", "forked"}.
func (h *ComposerHandler) CopyAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.AsMap()
	container, err := requiredString(fields, "container")
	if err != nil {
		return nil, err
	}

	var res composer.CopyResult
	if dialogName, _ := fields["dialog"].(string); dialogName != "" {
		designerID, err := requiredString(fields, "designer_id")
		if err != nil {
			return nil, err
		}
		res, err = h.svc.CopyDialogAction(ctx, container, dialogName, designerID)
		if err != nil {
			return nil, connectError(err)
		}
	} else {
		res, err = h.svc.CopyAction(ctx, container, fields["action"])
		if err != nil {
			return nil, connectError(err)
		}
	}

	return newResponse(map[string]any{
		"action": res.Action,
		"forked": res.Forked,
	})
}

// DeleteAction removes the composer-owned templates of {"action"} from
// {"container"} and returns {"deleted"}.
func (h *ComposerHandler) DeleteAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.AsMap()
	container, err := requiredString(fields, "container")
	if err != nil {
		return nil, err
	}

	deleted, err := h.svc.DeleteAction(ctx, container, fields["action"])
	if err != nil {
		return nil, connectError(err)
	}
	return newResponse(map[string]any{"deleted": stringList(deleted)})
}

// TemplateRefs returns {"templates"} referenced by {"action"}.
func (h *ComposerHandler) TemplateRefs(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	refs := h.svc.TemplateRefs(req.Msg.AsMap()["action"])
	return newResponse(map[string]any{"templates": stringList(refs)})
}

// ListDialogs returns {"dialogs"} currently loaded.
func (h *ComposerHandler) ListDialogs(_ context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var names []string
	if loader := h.svc.Loader(); loader != nil {
		names = loader.Names()
	}
	return newResponse(map[string]any{"dialogs": stringList(names)})
}

func requiredString(fields map[string]any, key string) (string, error) {
	s, _ := fields[key].(string)
	if s == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s is required", key))
	}
	return s, nil
}

func newResponse(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	return connect.NewResponse(msg), nil
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func connectError(err error) error {
	switch {
	case errors.Is(err, composer.ErrInvalidAction):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, composer.ErrDialogNotFound),
		errors.Is(err, composer.ErrActionNotFound),
		errors.Is(err, templatestore.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, composer.ErrNoDialogs):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, templatestore.ErrCircuitOpen):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// ComposerClient calls a remote composer service.
type ComposerClient struct {
	copyAction   *connect.Client[structpb.Struct, structpb.Struct]
	deleteAction *connect.Client[structpb.Struct, structpb.Struct]
	templateRefs *connect.Client[structpb.Struct, structpb.Struct]
	listDialogs  *connect.Client[structpb.Struct, structpb.Struct]
}

// NewComposerClient creates a client for the service at baseURL.
func NewComposerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ComposerClient {
	return &ComposerClient{
		copyAction:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+CopyActionProcedure, opts...),
		deleteAction: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+DeleteActionProcedure, opts...),
		templateRefs: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+TemplateRefsProcedure, opts...),
		listDialogs:  connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ListDialogsProcedure, opts...),
	}
}

func (c *ComposerClient) CopyAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.copyAction.CallUnary(ctx, req)
}

func (c *ComposerClient) DeleteAction(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.deleteAction.CallUnary(ctx, req)
}

func (c *ComposerClient) TemplateRefs(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.templateRefs.CallUnary(ctx, req)
}

func (c *ComposerClient) ListDialogs(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.listDialogs.CallUnary(ctx, req)
}
