package connectutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestDefaultOptions(t *testing.T) {
	if len(DefaultOptions()) == 0 {
		t.Fatal("expected non-empty options")
	}
	if len(DefaultClientOptions()) == 0 {
		t.Fatal("expected non-empty client options")
	}
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	const procedure = "/test.v1.Test/Ping"
	wantErr := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	var fail atomic.Bool

	mux := http.NewServeMux()
	mux.Handle(procedure, connect.NewUnaryHandler(procedure,
		func(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
			if fail.Load() {
				return nil, wantErr
			}
			return connect.NewResponse(&emptypb.Empty{}), nil
		}, DefaultOptions()...))

	server := httptest.NewUnstartedServer(H2CHandler(mux))
	server.Start()
	defer server.Close()

	client := connect.NewClient[emptypb.Empty, emptypb.Empty](http.DefaultClient, server.URL+procedure, DefaultClientOptions()...)
	if _, err := client.CallUnary(t.Context(), connect.NewRequest(&emptypb.Empty{})); err != nil {
		t.Fatalf("CallUnary: %v", err)
	}

	fail.Store(true)
	_, err := client.CallUnary(t.Context(), connect.NewRequest(&emptypb.Empty{}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
}
