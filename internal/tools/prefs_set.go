package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// PrefsSetHandler returns the MCP tool handler for the "prefs-set" tool.
// The value argument is parsed according to kind: objects as JSON, custom
// objects as base64.
func PrefsSetHandler(c *prefs.Cache) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		kind, err := requireKind(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := setValue(c, key, kind, raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("stored %s under %q", kind, key)), nil
	}
}

func setValue(c *prefs.Cache, key string, kind prefs.Kind, raw string) error {
	switch kind {
	case prefs.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		return c.SetInt(key, n)
	case prefs.KindFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		return c.SetFloat(key, float32(f))
	case prefs.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		return c.SetDouble(key, f)
	case prefs.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		return c.SetBool(key, b)
	case prefs.KindObject:
		obj, err := decodeJSON(raw)
		if err != nil {
			return err
		}
		return c.SetObject(key, obj)
	case prefs.KindBlob:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return err
		}
		return c.SetCustomObject(key, rawArchive(b))
	case prefs.KindURL:
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		return c.SetURL(key, u)
	}
	return fmt.Errorf("unsupported kind %v", kind)
}

// decodeJSON parses raw keeping integers as int64 rather than float64.
func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return fromJSON(v), nil
}

func fromJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = fromJSON(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = fromJSON(x[k])
		}
	}
	return v
}
