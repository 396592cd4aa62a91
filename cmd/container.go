// cmd/container.go
//
// Composition root. Owns infrastructure (DB, Redis, storage, vectors, job
// queue) and composes the bounded-context containers.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/agent/agentcontainer"
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ai/providers"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore/providers/vstmemory"
	"github.com/Abraxas-365/superagent/pkg/ai/vstore/providers/vstpgvector"
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/Abraxas-365/superagent/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/superagent/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/superagent/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/superagent/pkg/ingest/ingestcontainer"
	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/Abraxas-365/superagent/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/superagent/pkg/logx"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client
	LLMs       *providers.Factory
	Documents  *document.Store
	Jobs       *jobx.Client

	// Bounded-context containers
	IAM    *iamcontainer.Container
	Agents *agentcontainer.Container
	Ingest *ingestcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")
	ctx := context.Background()

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(ctx).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. File storage
	c.initFileStorage(ctx)

	// 4. Models and vectors
	c.initDocuments(ctx)

	// 5. Job queue
	jc := c.Config.Jobx
	c.Jobs = jobx.NewClient(
		jobxredis.NewRedisQueue(c.Redis),
		jobx.WithQueues(jc.Queues...),
		jobx.WithConcurrency(jc.Concurrency),
		jobx.WithPollInterval(jc.PollInterval),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
		jobx.WithDequeueTimeout(jc.DequeueTimeout),
		jobx.WithDefaultRetryDelay(jc.DefaultRetryDelay),
		jobx.WithJobTimeout(jc.JobTimeout),
	)
	logx.Infof("  ✅ Job queue configured (queues: %v)", jc.Queues)

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage(ctx context.Context) {
	sc := c.Config.Storage

	switch sc.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(sc.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(awsCfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, sc.S3Bucket, "")
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)", sc.S3Bucket, sc.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(sc.LocalPath)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.BasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", sc.Mode)
	}
}

func (c *Container) initDocuments(ctx context.Context) {
	c.LLMs = providers.NewFactory(c.Config.AI)

	embedder, err := c.LLMs.Embedder(ctx)
	if err != nil {
		logx.Fatalf("Failed to initialize embedder: %v", err)
	}

	vc := c.Config.VectorStore
	var storer vstore.VectorStorer
	switch vc.Provider {
	case "memory":
		storer = vstmemory.NewMemoryVectorStore(vc.Dimension, vstore.Metric(vc.Metric))
	case "pgvector":
		storer = vstpgvector.NewPgVectorProvider(c.DB,
			vstpgvector.WithTableName(vc.TableName),
			vstpgvector.WithDimension(vc.Dimension),
			vstpgvector.WithMetric(vstore.Metric(vc.Metric)),
		)
	default:
		logx.Fatalf("Unknown VECTORSTORE: %s (use 'memory' or 'pgvector')", vc.Provider)
	}

	ic := c.Config.Ingestion
	c.Documents = document.NewStore(vstore.NewClient(storer), embedder,
		document.WithBatchSize(ic.BatchSize),
		document.WithWorkers(ic.Workers),
	)
	logx.Infof("  ✅ Vector store configured (provider: %s, index: %s)", vc.Provider, vc.IndexName)
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.IAM = iamcontainer.New(iamcontainer.Deps{DB: c.DB, Cfg: c.Config})

	c.Ingest = ingestcontainer.New(ingestcontainer.Deps{
		DB:    c.DB,
		Cfg:   c.Config,
		Jobs:  c.Jobs,
		Store: c.Documents,
		Files: c.FileSystem,
	})

	c.Agents = agentcontainer.New(agentcontainer.Deps{
		DB:              c.DB,
		Cfg:             c.Config,
		LLMs:            c.LLMs,
		Documents:       c.Documents,
		DocumentChecker: c.Ingest.DocumentService,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the ingestion workers until ctx is done.
func (c *Container) StartBackgroundServices(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if !c.Config.Jobx.Enabled {
		logx.Info("⏸️ Job workers disabled (JOBX_ENABLED=false)")
		close(done)
		return done
	}

	logx.Info("🔄 Starting background services...")
	go func() {
		defer close(done)
		if err := c.Jobs.Start(ctx); err != nil {
			logx.Errorf("Job workers stopped with error: %v", err)
		}
	}()
	return done
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.Agents != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.Agents.Drain(ctx); err != nil {
			logx.Warnf("Pending agent writes not finished: %v", err)
		}
		cancel()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
