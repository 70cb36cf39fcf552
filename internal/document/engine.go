// Package document implements the in-memory document storage engine:
// named collections of key -> Document, each collection optionally
// schema-validated, guarded by a single mutex per Engine instance.
package document

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kadedb/kadedb"
)

type collection struct {
	schema *kadedb.DocumentSchema // nil means schemaless
	docs   map[string]*kadedb.Document
}

// Engine is the in-memory document storage engine.
type Engine struct {
	mu          sync.Mutex
	collections map[string]*collection
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{collections: make(map[string]*collection)}
}

// CreateCollection registers collection name with an optional schema
// (nil for schemaless collections).
func (e *Engine) CreateCollection(name string, schema *kadedb.DocumentSchema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.collections[name]; exists {
		return kadedb.NewEngineError(kadedb.AlreadyExists, "collection %q already exists", name).
			WithEntity(kadedb.EntityRef{Store: "document", Name: name}).
			WithOperation("createCollection")
	}
	e.collections[name] = &collection{schema: schema, docs: make(map[string]*kadedb.Document)}
	return nil
}

// DropCollection removes a collection and all of its documents.
func (e *Engine) DropCollection(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.collections[name]; !ok {
		return collectionNotFound(name, "dropCollection")
	}
	delete(e.collections, name)
	return nil
}

// ListCollections returns collection names in sorted order.
func (e *Engine) ListCollections() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.collections))
	for name := range e.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Put validates doc against the collection's schema (if any) and
// stores it under key, overwriting any existing document there. A
// collection that does not yet exist is created lazily, schemaless,
// as if CreateCollection(collectionName, nil) had been called first.
func (e *Engine) Put(collectionName, key string, doc *kadedb.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[collectionName]
	if !ok {
		c = &collection{docs: make(map[string]*kadedb.Document)}
		e.collections[collectionName] = c
	}
	if c.schema != nil {
		if msg := kadedb.ValidateDocument(c.schema, doc); msg != "" {
			return kadedb.NewEngineError(kadedb.InvalidArgument, "%s", msg).
				WithEntity(kadedb.EntityRef{Store: "document", Name: collectionName, Key: key}).
				WithOperation("put")
		}
		candidate := make(map[string]*kadedb.Document, len(c.docs)+1)
		for k, v := range c.docs {
			candidate[k] = v
		}
		candidate[key] = doc
		if msg := kadedb.ValidateDocumentUnique(c.schema, candidate, true); msg != "" {
			return kadedb.NewEngineError(kadedb.FailedPrecondition, "%s", msg).
				WithEntity(kadedb.EntityRef{Store: "document", Name: collectionName, Key: key}).
				WithOperation("put")
		}
	}
	c.docs[key] = doc.Clone()
	return nil
}

// PutAuto mints a UUIDv7 key and stores doc under it, for callers that
// treat the document store as a keyless object store.
func (e *Engine) PutAuto(collectionName string, doc *kadedb.Document) (string, error) {
	key := uuid.Must(uuid.NewV7()).String()
	if err := e.Put(collectionName, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns a deep copy of the document stored under key.
func (e *Engine) Get(collectionName, key string) (*kadedb.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[collectionName]
	if !ok {
		return nil, collectionNotFound(collectionName, "get")
	}
	doc, ok := c.docs[key]
	if !ok {
		return nil, kadedb.NewEngineError(kadedb.NotFound, "document %q not found", key).
			WithEntity(kadedb.EntityRef{Store: "document", Name: collectionName, Key: key}).
			WithOperation("get")
	}
	return doc.Clone(), nil
}

// Erase removes the document stored under key.
func (e *Engine) Erase(collectionName, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[collectionName]
	if !ok {
		return collectionNotFound(collectionName, "erase")
	}
	if _, ok := c.docs[key]; !ok {
		return kadedb.NewEngineError(kadedb.NotFound, "document %q not found", key).
			WithEntity(kadedb.EntityRef{Store: "document", Name: collectionName, Key: key}).
			WithOperation("erase")
	}
	delete(c.docs, key)
	return nil
}

// Count returns the number of documents in collectionName.
func (e *Engine) Count(collectionName string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[collectionName]
	if !ok {
		return 0, collectionNotFound(collectionName, "count")
	}
	return len(c.docs), nil
}

// Query returns the key/document pairs matching pred (nil matches
// everything), in unspecified order. When projection is non-empty,
// each returned document is shaped down to just those fields; a
// projected field absent on a given document is simply omitted. A
// projection field that does not exist in the collection's schema (if
// the collection has one) is rejected as InvalidArgument.
func (e *Engine) Query(collectionName string, projection []string, pred *kadedb.DocPredicate) (map[string]*kadedb.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[collectionName]
	if !ok {
		return nil, collectionNotFound(collectionName, "query")
	}
	if c.schema != nil {
		for _, f := range projection {
			if _, ok := c.schema.GetField(f); !ok {
				return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown field %q", f).
					WithEntity(kadedb.EntityRef{Store: "document", Name: collectionName}).
					WithOperation("query")
			}
		}
	}
	out := make(map[string]*kadedb.Document)
	for k, d := range c.docs {
		if pred != nil && !pred.Eval(d) {
			continue
		}
		out[k] = projectDocument(d, projection)
	}
	return out, nil
}

func projectDocument(d *kadedb.Document, projection []string) *kadedb.Document {
	if len(projection) == 0 {
		return d.Clone()
	}
	out := kadedb.NewDocument()
	for _, f := range projection {
		if v, ok := d.Get(f); ok {
			out.Set(f, v.Clone())
		}
	}
	return out
}

func collectionNotFound(name, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "collection %q does not exist", name).
		WithEntity(kadedb.EntityRef{Store: "document", Name: name}).
		WithOperation(op)
}
