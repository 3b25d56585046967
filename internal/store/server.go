package store

import (
	"encoding/json"
	"errors"
	"net"

	"github.com/leonardcser/prefs-cache/internal/logger"
	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// Serve accepts connections on l and answers protocol requests against s
// until l is closed.
func Serve(l net.Listener, s prefs.ValueStore) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warnf("accept: %v", err)
			continue
		}
		go handleConn(conn, s)
	}
}

func handleConn(conn net.Conn, s prefs.ValueStore) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		_ = enc.Encode(handle(s, req))
	}
}

func handle(s prefs.ValueStore, req Request) Response {
	switch req.Op {
	case OpGet:
		v, ok, err := s.Get(req.Key)
		if err != nil {
			return errorResponse(err)
		}
		if !ok {
			return Response{OK: true}
		}
		raw, err := prefs.MarshalValue(v)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Found: true, Value: raw}
	case OpSet:
		v, err := prefs.UnmarshalValue(req.Value)
		if err != nil {
			return errorResponse(err)
		}
		return errorResponse(s.Set(req.Key, v))
	case OpRemove:
		return errorResponse(s.Remove(req.Key))
	case OpRemoveAll:
		logger.Infof("remove all requested")
		return errorResponse(s.RemoveAll())
	case OpContains:
		ok, err := s.ContainsKey(req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Found: ok}
	case OpFlush:
		return errorResponse(s.Flush())
	}
	return Response{Error: "unknown op " + req.Op}
}

// errorResponse turns err into a failed Response, or a bare success if err
// is nil.
func errorResponse(err error) Response {
	if err == nil {
		return Response{OK: true}
	}
	resp := Response{Error: err.Error()}
	switch {
	case errors.Is(err, prefs.ErrNotPlist):
		resp.Code = CodeNotPlist
	case errors.Is(err, prefs.ErrEmptyKey):
		resp.Code = CodeEmptyKey
	case errors.Is(err, prefs.ErrCorrupt):
		resp.Code = CodeCorrupt
	}
	return resp
}
