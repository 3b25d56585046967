package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// rawArchive is a custom object that archives to exactly its own bytes, which
// lets the tools move custom objects without knowing their Go type.
type rawArchive []byte

func (r rawArchive) MarshalBinary() ([]byte, error) { return []byte(r), nil }

func (r *rawArchive) UnmarshalBinary(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

// PrefsGetHandler returns the MCP tool handler for the "prefs-get" tool.
func PrefsGetHandler(c *prefs.Cache) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		if !c.ContainsKey(key) {
			return mcp.NewToolResultText(fmt.Sprintf("key %q not found", key)), nil
		}
		text, err := formatValue(c, key, kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func formatValue(c *prefs.Cache, key string, kind prefs.Kind) (string, error) {
	switch kind {
	case prefs.KindInt:
		return strconv.FormatInt(c.Int(key), 10), nil
	case prefs.KindFloat:
		return strconv.FormatFloat(float64(c.Float(key)), 'g', -1, 32), nil
	case prefs.KindDouble:
		return strconv.FormatFloat(c.Double(key), 'g', -1, 64), nil
	case prefs.KindBool:
		return strconv.FormatBool(c.Bool(key)), nil
	case prefs.KindObject:
		obj := c.Object(key)
		if obj == nil {
			return "", fmt.Errorf("key %q does not hold an object", key)
		}
		b, err := json.Marshal(obj)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case prefs.KindBlob:
		raw, err := prefs.CustomObject[rawArchive](c, key)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(raw), nil
	case prefs.KindURL:
		u := c.URL(key)
		if u == nil {
			return "", fmt.Errorf("key %q does not hold a URL", key)
		}
		return u.String(), nil
	}
	return "", fmt.Errorf("unsupported kind %v", kind)
}

func requireKind(req mcp.CallToolRequest) (prefs.Kind, error) {
	name, err := req.RequireString("kind")
	if err != nil {
		return prefs.KindInvalid, err
	}
	kind, ok := prefs.ParseKind(name)
	if !ok {
		return prefs.KindInvalid, fmt.Errorf("unknown kind %q", name)
	}
	return kind, nil
}

// KindNames lists the kind argument values accepted by the tools.
func KindNames() []string {
	var names []string
	for k := prefs.KindInt; k <= prefs.KindURL; k++ {
		names = append(names, k.String())
	}
	return names
}
