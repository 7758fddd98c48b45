package config

// Storage backend identifiers.
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

const (
	defaultDataDir           = "~/.local/share/manualstudio/data"
	defaultLogDir            = "~/.local/share/manualstudio/logs"
	defaultWorkDir           = "~/.local/share/manualstudio/work"
	defaultStorageBackend    = BackendS3
	defaultStorageEndpoint   = "http://localhost:9000"
	defaultStorageBucket     = "manualstudio"
	defaultStorageRegion     = "us-east-1"
	defaultStorageLocalDir   = "~/.local/share/manualstudio/artifacts"
	defaultPresignTTLSeconds = 3600
	defaultTranscriber       = "mock"
	defaultStepGenerator     = "mock"
	defaultMaxVideoMinutes   = 15
	defaultMaxVideoSizeMB    = 1024
	defaultWorkerCount       = 2
	defaultQueueDepth        = 64
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLanguage          = "ja"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			WorkDir: defaultWorkDir,
		},
		Storage: Storage{
			Backend:           defaultStorageBackend,
			Endpoint:          defaultStorageEndpoint,
			Bucket:            defaultStorageBucket,
			Region:            defaultStorageRegion,
			LocalDir:          defaultStorageLocalDir,
			PresignTTLSeconds: defaultPresignTTLSeconds,
		},
		Providers: Providers{
			Transcriber:   defaultTranscriber,
			StepGenerator: defaultStepGenerator,
		},
		Limits: Limits{
			MaxVideoMinutes: defaultMaxVideoMinutes,
			MaxVideoSizeMB:  defaultMaxVideoSizeMB,
		},
		Workflow: Workflow{
			WorkerCount: defaultWorkerCount,
			QueueDepth:  defaultQueueDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		DefaultLanguage: defaultLanguage,
	}
}
