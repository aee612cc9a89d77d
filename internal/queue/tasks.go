package queue

const (
	// TypePromptStats recomputes a draft's estimated token count after
	// its content changes.
	TypePromptStats = "prompt:stats"
	// TypeVectorDBProbe checks connectivity of a newly registered
	// vector store and records status plus document count.
	TypeVectorDBProbe = "vectordb:probe"
)

type PromptStatsPayload struct {
	PromptID string `json:"prompt_id"`
}

type VectorDBProbePayload struct {
	DatabaseID string `json:"database_id"`
	OwnerID    string `json:"owner_id"`
}
