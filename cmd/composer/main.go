package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"

	cconfig "github.com/voicetyped/composer/config"
	"github.com/voicetyped/composer/internal/composer"
	composerapi "github.com/voicetyped/composer/internal/composer/api"
	composerhandler "github.com/voicetyped/composer/internal/composer/handler"
	"github.com/voicetyped/composer/internal/connectutil"
	"github.com/voicetyped/composer/pkg/dialog"
	"github.com/voicetyped/composer/pkg/events"
	"github.com/voicetyped/composer/pkg/templatestore"
)

func main() {
	ctx := context.Background()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadWithOIDC[cconfig.ComposerConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("voicetyped-composer"),
		frame.WithRegisterServerOauth2Client(),
		frame.WithDatastore(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	authenticator := srv.SecurityManager().GetAuthenticator(ctx)

	pub := events.NewPublisher(srv.QueueManager(), "composer", eventRef)

	// --- Template store ---
	var (
		store templatestore.Store
		cache composer.CacheInvalidator
	)
	if cfg.UsesDatabase() {
		repo, err := templatestore.NewRepository(
			srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
			cfg.TemplateCacheSize,
		)
		if err != nil {
			log.Fatalf("creating template repository: %v", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("migrating templates: %v", err)
		}
		store, cache = repo, repo
	} else {
		mem := templatestore.NewMemoryStore()
		if loaded, err := templatestore.LoadDir(mem, cfg.TemplateDir); err != nil {
			log.Printf("warning: loading templates: %v", err)
		} else {
			log.Printf("loaded %d template files from %s", len(loaded), cfg.TemplateDir)
		}
		store = mem
	}
	guarded := templatestore.NewBreakerStore(store, templatestore.CircuitBreakerConfig{
		FailureThreshold:    cfg.StoreCBFailThreshold,
		ResetTimeout:        cfg.StoreResetTimeout(),
		HalfOpenMaxAttempts: 1,
	})

	// --- Dialogs ---
	loader := dialog.NewLoader(cfg.DialogDir)
	if _, err := loader.LoadAll(); err != nil {
		log.Printf("warning: loading dialogs: %v", err)
	}

	svc := composer.NewService(guarded, loader, pub, cfg.NamingSchemes()...)
	svc.LintDialogs(ctx)

	if cfg.WatchDialogs {
		watch := func() {
			err := loader.WatchAndReload(ctx, func(names []string) {
				_ = pub.Emit(ctx, events.DialogsReloaded, "", events.DialogsReloadedData{
					Dir:     loader.Dir(),
					Dialogs: names,
				})
				svc.LintDialogs(ctx)
			})
			if err != nil {
				util.Log(ctx).WithError(err).Error("dialog watcher stopped")
			}
		}
		if err := pool.Submit(ctx, watch); err != nil {
			log.Printf("warning: starting dialog watcher: %v", err)
		}
	}

	// --- HTTP Mux: Connect RPC and REST on one server ---
	mux := http.NewServeMux()

	opts, err := connectutil.AuthenticatedOptions(ctx, authenticator)
	if err != nil {
		log.Fatalf("setting up auth interceptors: %v", err)
	}
	path, h := composerhandler.NewComposerServiceHandler(composerhandler.NewComposerHandler(svc), opts...)
	mux.Handle(path, h)

	restMux := http.NewServeMux()
	composerapi.NewHandler(svc).RegisterRoutes(restMux)
	mux.Handle("/api/", connectutil.AuthenticatedHTTPMiddleware(restMux, authenticator))

	sub := &composer.Subscriber{Service: svc, Cache: cache, Pool: pool}

	srv.Init(ctx,
		frame.WithRegisterSubscriber(eventRef+".composer", eventURL, sub),
		frame.WithHTTPHandler(connectutil.H2CHandler(mux)),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
