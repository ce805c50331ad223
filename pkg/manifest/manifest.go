// Package manifest renders resolved registrations into a deterministic
// JSON document and publishes it to a store, for documentation surfaces
// and deploy-time route diffing.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dirroute/dirroute/pkg/router"
)

// Route is one registration, reduced to its serializable surface.
type Route struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Params     []string `json:"params,omitempty"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
	StatusCode int      `json:"statusCode,omitempty"`
	WebSocket  bool     `json:"websocket,omitempty"`
	Middleware int      `json:"middleware"`
}

// Document is a full route manifest. Route order is deterministic: path,
// then method, so two resolutions of the same tree produce byte-identical
// manifests.
type Document struct {
	Routes []Route `json:"routes"`
}

// Build converts registrations into a manifest document.
func Build(regs []router.Registration) *Document {
	doc := &Document{Routes: make([]Route, 0, len(regs))}
	for _, reg := range regs {
		doc.Routes = append(doc.Routes, Route{
			Method:     reg.Method,
			Path:       reg.Path,
			Params:     reg.Params,
			Source:     reg.RelDir,
			Tags:       reg.Tags,
			Summary:    reg.Summary,
			Deprecated: reg.Deprecated,
			StatusCode: reg.StatusCode,
			WebSocket:  reg.WebSocketKind,
			Middleware: len(reg.Chain),
		})
	}
	sort.Slice(doc.Routes, func(i, j int) bool {
		if doc.Routes[i].Path != doc.Routes[j].Path {
			return doc.Routes[i].Path < doc.Routes[j].Path
		}
		return doc.Routes[i].Method < doc.Routes[j].Method
	})
	return doc
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Store persists a rendered manifest under a name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Publish renders doc and writes it to store under name.
func Publish(ctx context.Context, store Store, name string, doc *Document) error {
	data, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("manifest: store %q: %w", name, err)
	}
	return nil
}
