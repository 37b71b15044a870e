package config

const (
	SegmentModeMemory = "memory"
	SegmentModeDisk   = "disk"
)

const (
	defaultInputDir            = "./assets/sc"
	defaultDataDir             = "~/.local/share/musica"
	defaultLogDir              = "~/.local/share/musica/logs"
	defaultInputPattern        = "**/*"
	defaultInputEncoding       = "utf-8"
	defaultWatchDebounceMillis = 500
	defaultSegmentMode         = SegmentModeMemory
	defaultParseWorkers        = 4
	defaultDispatchWorkers     = 2
	defaultQueuePollMillis     = 1000
	defaultErrorRetryInterval  = 5
	defaultHeartbeatInterval   = 15
	defaultHeartbeatTimeout    = 120
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir: defaultInputDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
		},
		Input: Input{
			Patterns:            []string{defaultInputPattern},
			Encoding:            defaultInputEncoding,
			WatchDebounceMillis: defaultWatchDebounceMillis,
		},
		Segments: Segments{
			Mode: defaultSegmentMode,
		},
		Pipeline: Pipeline{
			ParseWorkers:       defaultParseWorkers,
			DispatchWorkers:    defaultDispatchWorkers,
			QueuePollMillis:    defaultQueuePollMillis,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
