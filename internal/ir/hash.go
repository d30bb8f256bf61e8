package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTree separates tree fingerprints from other hashes.
const DomainTree = "mirc/canonical-tree/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalJSON returns the canonical JSON form of a tree.
func (t *Tree) CanonicalJSON() ([]byte, error) {
	if t == nil || t.Root == nil {
		return []byte("null"), nil
	}
	return MarshalCanonical(t.Root.canonicalMap())
}

// Fingerprint returns a stable content hash of the canonical tree. Two
// documents with identical structure and values share a fingerprint.
func (t *Tree) Fingerprint() (string, error) {
	data, err := t.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// canonicalMap converts a node into plain JSON values for MarshalCanonical.
func (n *Node) canonicalMap() map[string]any {
	m := map[string]any{
		"id":   n.ID,
		"type": n.Type,
		"path": n.Path,
	}
	if n.Text != nil {
		m["text"] = n.Text
	}
	if n.Style != nil {
		m["style"] = n.Style
	}
	if n.Props != nil {
		m["props"] = n.Props
	}
	if n.Data != nil {
		m["data"] = dropNil(map[string]any{
			"source": n.Data.Source,
			"pick":   n.Data.Pick,
			"value":  n.Data.Value,
			"mock":   n.Data.Mock,
			"extend": n.Data.Extend,
		})
	}
	if n.List != nil {
		m["list"] = dropNil(map[string]any{
			"source":      n.List.Source,
			"arrayField":  n.List.ArrayField,
			"itemAs":      n.List.ItemAs,
			"indexAs":     n.List.IndexAs,
			"keyBy":       n.List.KeyBy,
			"emptyNodeId": n.List.EmptyNodeID,
		})
	}
	if len(n.Events) > 0 {
		events := make(map[string]any, len(n.Events))
		for k, ev := range n.Events {
			entry := map[string]any{"trigger": ev.Trigger}
			if ev.Action != "" {
				entry["action"] = ev.Action
			}
			if ev.Params != nil {
				entry["params"] = ev.Params
			}
			events[k] = entry
		}
		m["events"] = events
	}
	if len(n.Children) > 0 {
		children := make([]any, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.canonicalMap()
		}
		m["children"] = children
	}
	return m
}

func dropNil(m map[string]any) map[string]any {
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}
	return m
}

// Map returns the canonical tree as plain JSON values.
func (t *Tree) Map() map[string]any {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.Root.canonicalMap()
}
