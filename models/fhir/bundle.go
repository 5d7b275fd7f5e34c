package fhir

import "encoding/json"

// Bundle is the top-level shape of an input document: a list of entries,
// each wrapping a single resource.
type Bundle struct {
	Entry []BundleEntry `json:"entry"`
}

// BundleEntry wraps one resource. The resource body is kept raw until the
// resourceType discriminator has been read.
type BundleEntry struct {
	Resource json.RawMessage `json:"resource"`
}

// ResourceHeader carries only the discriminator field, used to decide which
// concrete resource type an entry's body should be decoded into.
type ResourceHeader struct {
	ResourceType string `json:"resourceType"`
}
