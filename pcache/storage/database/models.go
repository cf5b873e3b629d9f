package database

// CachedTransformation is one row of cached_transformations.
type CachedTransformation struct {
	ID        int64
	Input     string
	Output    string
	CreatedAt int64 // unix millis
}

// Payload is one row of payloads.
type Payload struct {
	ID         int64
	Identifier string
	Output     string
	CreatedAt  int64 // unix millis
}

type InsertTransformationParams struct {
	Input     string
	Output    string
	CreatedAt int64
}

type InsertPayloadParams struct {
	Identifier string
	Output     string
	CreatedAt  int64
}
