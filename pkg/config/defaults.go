package config

const (
	defaultAPIListen    = ":8000"
	defaultAPIBodyLimit = 32 * 1024 * 1024

	defaultClientAPITarget = "http://localhost:8000"

	defaultVectorProvider   = "sqlite"
	defaultVectorTarget     = "memories_vectorstore"
	defaultVectorCollection = "memories"

	defaultEmbeddingProvider   = "random"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 8

	defaultEventsProvider = "nop"
	defaultEventsBroker   = "localhost:9092"
	defaultEventsTopic    = "memories.persisted"

	defaultSearchTopK = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	fallback := true
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:    defaultAPIListen,
			BodyLimit: defaultAPIBodyLimit,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
			Fallback:   &fallback,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  []string{defaultEventsBroker},
			Topic:    defaultEventsTopic,
		},
		Search: SearchConfig{
			TopK: defaultSearchTopK,
		},
	}
}
