package store

// Simple JSON protocol for the prefs daemon over a Unix domain socket.
// One request -> one response using json.Encoder/Decoder per connection.
// Values travel as prefs.MarshalValue records.

const (
	OpGet       = "get"
	OpSet       = "set"
	OpRemove    = "remove"
	OpRemoveAll = "remove_all"
	OpContains  = "contains"
	OpFlush     = "flush"
)

// Error codes carried in Response.Code so clients can restore sentinel errors.
const (
	CodeNotPlist = "not_plist"
	CodeEmptyKey = "empty_key"
	CodeCorrupt  = "corrupt"
)

type Request struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Found bool   `json:"found,omitempty"`
	Value []byte `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}
