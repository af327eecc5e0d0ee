package connectutil

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/pitabwire/frame/security"
	connectInterceptors "github.com/pitabwire/frame/security/interceptors/connect"
	securityhttp "github.com/pitabwire/frame/security/interceptors/httptor"
)

// DefaultOptions returns the Connect handler options without authentication.
func DefaultOptions() []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithInterceptors(NewLoggingInterceptor()),
	}
}

// AuthenticatedOptions returns Connect handler options with frame's security
// interceptor chain followed by the logging interceptor.
func AuthenticatedOptions(ctx context.Context, authenticator security.Authenticator) ([]connect.HandlerOption, error) {
	interceptors, err := connectInterceptors.DefaultList(ctx, authenticator)
	if err != nil {
		return nil, err
	}
	interceptors = append(interceptors, NewLoggingInterceptor())

	return []connect.HandlerOption{
		connect.WithInterceptors(interceptors...),
	}, nil
}

// AuthenticatedHTTPMiddleware wraps the REST API with frame's bearer token
// authentication.
func AuthenticatedHTTPMiddleware(handler http.Handler, authenticator security.Authenticator) http.Handler {
	return securityhttp.AuthenticationMiddleware(handler, authenticator)
}

// DefaultClientOptions returns the default Connect client options.
func DefaultClientOptions() []connect.ClientOption {
	return []connect.ClientOption{
		connect.WithInterceptors(NewLoggingInterceptor()),
	}
}

// NewLoggingInterceptor logs procedure, duration and error code of every
// unary call. The composer service has no streaming procedures.
func NewLoggingInterceptor() connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				slog.String("procedure", req.Spec().Procedure),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("client", req.Spec().IsClient),
			}
			if err != nil {
				attrs = append(attrs,
					slog.String("code", connect.CodeOf(err).String()),
					slog.String("error", err.Error()))
				slog.WarnContext(ctx, "rpc error", attrs...)
			} else {
				slog.DebugContext(ctx, "rpc ok", attrs...)
			}
			return resp, err
		}
	})
}
