package startup

import (
	"context"
	"os"

	"likeness.io/application/controller"
	"likeness.io/application/repository"
	"likeness.io/application/services/licensing"
	"likeness.io/application/services/matchengine"
	"likeness.io/application/services/registration"
	service_types "likeness.io/application/services/types"
	"likeness.io/application/services/verification"
	"likeness.io/infrastructure/biometric"
	biometric_types "likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/database"
	redisClient "likeness.io/infrastructure/database/connection/cache"
	"likeness.io/infrastructure/database/connection/datastore"
	"likeness.io/infrastructure/locks"
	"likeness.io/infrastructure/logger"
	messagequeue "likeness.io/infrastructure/message_queue"
	queue_tasks "likeness.io/infrastructure/message_queue/tasks"
	"likeness.io/infrastructure/resilience"
	"likeness.io/infrastructure/vectorindex"
)

// Used to start services such as loggers, databases, queues, etc.
func StartServices() {
	logger.InitializeLogger()
	database.SetUpDatabase()

	config, err := service_types.LoadPipelineConfig()
	if err != nil {
		logger.Error("invalid pipeline configuration", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		panic(err)
	}

	engineBreaker := resilience.NewBreaker("face-engine")
	indexBreaker := resilience.NewBreaker("vector-index")
	controller.Breakers = []*resilience.Breaker{engineBreaker, indexBreaker}

	oracle := &biometric.GuardedOracle{
		Inner: biometric.NewEmbeddingOracle(),
		Guard: &resilience.Guard{
			Breaker: engineBreaker,
			Retry:   resilience.DefaultRetryPolicy(),
		},
	}

	index := &vectorindex.Guarded{
		Inner: vectorindex.NewMemoryIndex(biometric_types.EmbeddingDimension),
		Guard: &resilience.Guard{
			Breaker: indexBreaker,
			Retry:   resilience.DefaultRetryPolicy(),
		},
	}

	engine := matchengine.New(index, config.MatchCandidates)
	identities := repository.IdentityStoreAdapter{}

	redis, _ := redisClient.GetInstance()
	locker := locks.NewRedisLocker(redis.Client, "likeness_lock:")

	controller.RegistrationService = &registration.RegistrationService{
		Oracle:     oracle,
		Engine:     engine,
		Index:      index,
		Identities: identities,
		Locker:     locker,
		Scheduler:  messagequeue.ReconcileScheduler{},
		Config:     config,
	}

	var catalog service_types.LicenseCatalog = licensing.NoopCatalog{}
	if marketplaceURL := os.Getenv("LICENSE_MARKETPLACE_URL"); marketplaceURL != "" {
		catalog = licensing.New(marketplaceURL)
	}

	controller.VerificationService = &verification.VerificationService{
		Oracle:     oracle,
		Engine:     engine,
		Identities: identities,
		Records:    repository.VerificationRecordStoreAdapter{},
		Licenses:   catalog,
		Config:     config,
	}

	queue_tasks.SetReconcilerDeps(index, config.DuplicateThreshold)

	// The index must be warm before the server answers queries; a cold
	// index reads as "no match" for every registered identity.
	if _, err := controller.RegistrationService.RehydrateIndex(context.Background()); err != nil {
		logger.Error("index rehydration failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}

	go messagequeue.StartQueue()
}

// Used to clean up after services that have been shutdown.
func CleanUpServices() {
	datastore.CleanUp()
}
