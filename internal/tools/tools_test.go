package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/prefs-cache/internal/memcache"
	"github.com/leonardcser/prefs-cache/internal/prefs"
	"github.com/leonardcser/prefs-cache/internal/store"
)

type handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newCache(t *testing.T) *prefs.Cache {
	t.Helper()
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "prefs.bbolt"), store.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return prefs.New(s, memcache.NewLRU(16))
}

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("handler returned %d content items, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("handler returned %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestSetGet(t *testing.T) {
	c := newCache(t)
	set, get := PrefsSetHandler(c), PrefsGetHandler(c)

	tests := []struct {
		kind, value, want string
	}{
		{"int", "42", "42"},
		{"float", "0.5", "0.5"},
		{"double", "2.25", "2.25"},
		{"bool", "true", "true"},
		{"object", `{"name":"Ana","age":31,"tags":["a"]}`, `{"age":31,"name":"Ana","tags":["a"]}`},
		{"blob", "AQID", "AQID"},
		{"url", "https://example.com/x?y=1", "https://example.com/x?y=1"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			key := "key-" + tt.kind
			if text, isErr := call(t, set, map[string]any{"key": key, "kind": tt.kind, "value": tt.value}); isErr {
				t.Fatalf("prefs-set: %s", text)
			}
			text, isErr := call(t, get, map[string]any{"key": key, "kind": tt.kind})
			if isErr {
				t.Fatalf("prefs-get: %s", text)
			}
			if text != tt.want {
				t.Errorf("prefs-get = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestObjectKeepsIntegers(t *testing.T) {
	c := newCache(t)
	if text, isErr := call(t, PrefsSetHandler(c), map[string]any{"key": "o", "kind": "object", "value": `{"n":3}`}); isErr {
		t.Fatal(text)
	}
	obj, ok := c.Object("o").(map[string]any)
	if !ok {
		t.Fatalf("Object(o) = %#v, want a map", c.Object("o"))
	}
	if n, ok := obj["n"].(int64); !ok || n != 3 {
		t.Errorf(`Object(o)["n"] = %#v, want int64(3)`, obj["n"])
	}
}

func TestErrors(t *testing.T) {
	c := newCache(t)
	set, get := PrefsSetHandler(c), PrefsGetHandler(c)

	for name, args := range map[string]map[string]any{
		"missing key":   {"kind": "int", "value": "1"},
		"unknown kind":  {"key": "k", "kind": "complex", "value": "1"},
		"bad int":       {"key": "k", "kind": "int", "value": "one"},
		"bad json":      {"key": "k", "kind": "object", "value": "{"},
		"bad base64":    {"key": "k", "kind": "blob", "value": "***"},
		"missing value": {"key": "k", "kind": "bool"},
	} {
		if text, isErr := call(t, set, args); !isErr {
			t.Errorf("prefs-set with %s succeeded: %s", name, text)
		}
	}

	if text, isErr := call(t, get, map[string]any{"key": "absent", "kind": "int"}); isErr || text != `key "absent" not found` {
		t.Errorf("prefs-get(absent) = %q, %v", text, isErr)
	}

	if err := c.SetInt("n", 1); err != nil {
		t.Fatal(err)
	}
	if text, isErr := call(t, get, map[string]any{"key": "n", "kind": "url"}); !isErr {
		t.Errorf("prefs-get(int key as url) succeeded: %s", text)
	}
}

func TestRemoveContains(t *testing.T) {
	c := newCache(t)
	contains, remove := PrefsContainsHandler(c), PrefsRemoveHandler(c)

	if err := c.SetBool("b", true); err != nil {
		t.Fatal(err)
	}
	if text, _ := call(t, contains, map[string]any{"key": "b"}); text != "true" {
		t.Errorf("prefs-contains(b) = %q, want true", text)
	}
	if text, isErr := call(t, remove, map[string]any{"key": "b"}); isErr {
		t.Fatalf("prefs-remove: %s", text)
	}
	if text, _ := call(t, contains, map[string]any{"key": "b"}); text != "false" {
		t.Errorf("prefs-contains(b) after remove = %q, want false", text)
	}
	if text, isErr := call(t, remove, map[string]any{"key": "b"}); isErr {
		t.Errorf("second prefs-remove failed: %s", text)
	}
}
