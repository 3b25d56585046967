package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// Client implements prefs.ValueStore over a Unix socket served by Serve.
type Client struct {
	socketPath string
	timeout    time.Duration
}

var _ prefs.ValueStore = (*Client)(nil)

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 500 * time.Millisecond}
}

func (c *Client) roundTrip(req Request) (Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return resp, responseError(resp)
	}
	return resp, nil
}

func responseError(resp Response) error {
	switch resp.Code {
	case CodeNotPlist:
		return fmt.Errorf("%w: %s", prefs.ErrNotPlist, resp.Error)
	case CodeEmptyKey:
		return prefs.ErrEmptyKey
	case CodeCorrupt:
		return fmt.Errorf("%w: %s", prefs.ErrCorrupt, resp.Error)
	}
	return errors.New(resp.Error)
}

func (c *Client) Get(key string) (prefs.Value, bool, error) {
	resp, err := c.roundTrip(Request{Op: OpGet, Key: key})
	if err != nil || !resp.Found {
		return prefs.Value{}, false, err
	}
	v, err := prefs.UnmarshalValue(resp.Value)
	if err != nil {
		return prefs.Value{}, false, err
	}
	return v, true, nil
}

func (c *Client) Set(key string, v prefs.Value) error {
	raw, err := prefs.MarshalValue(v)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(Request{Op: OpSet, Key: key, Value: raw})
	return err
}

func (c *Client) Remove(key string) error {
	_, err := c.roundTrip(Request{Op: OpRemove, Key: key})
	return err
}

func (c *Client) RemoveAll() error {
	_, err := c.roundTrip(Request{Op: OpRemoveAll})
	return err
}

func (c *Client) ContainsKey(key string) (bool, error) {
	resp, err := c.roundTrip(Request{Op: OpContains, Key: key})
	return resp.Found, err
}

func (c *Client) Flush() error {
	_, err := c.roundTrip(Request{Op: OpFlush})
	return err
}
