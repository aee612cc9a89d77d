package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VectorDBPinecone = "pinecone"
	VectorDBChroma   = "chroma"
	VectorDBPgvector = "pgvector"
	VectorDBQdrant   = "qdrant"
	VectorDBWeaviate = "weaviate"
	VectorDBMilvus   = "milvus"
)

const (
	ConnStatusActive   = "active"
	ConnStatusIndexing = "indexing"
	ConnStatusError    = "error"
)

// VectorDatabase is a user's registered external vector store. The
// connection credentials are held only as ciphertext; ConnectionConfig
// is never serialized to clients.
type VectorDatabase struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OwnerID          uuid.UUID  `json:"owner_id" db:"owner_id"`
	Type             string     `json:"type" db:"type"`
	CollectionName   string     `json:"collection_name" db:"collection_name"`
	Description      string     `json:"description,omitempty" db:"description"`
	ConnectionConfig string     `json:"-" db:"connection_config"`
	Status           string     `json:"status" db:"status"`
	DocumentCount    int        `json:"document_count" db:"document_count"`
	LastConnected    *time.Time `json:"last_connected,omitempty" db:"last_connected"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// ValidVectorDBType reports whether t is one of the supported store types.
func ValidVectorDBType(t string) bool {
	switch t {
	case VectorDBPinecone, VectorDBChroma, VectorDBPgvector,
		VectorDBQdrant, VectorDBWeaviate, VectorDBMilvus:
		return true
	}
	return false
}
