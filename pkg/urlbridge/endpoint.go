package urlbridge

// Path segments that prefix every endpoint path.
const (
	SegmentHTTP  = "lslhttp"
	SegmentHTTPS = "lslhttps"
)

// Endpoint is one allocated, externally reachable address.
type Endpoint struct {
	// Address is the full external URL, the registry key.
	Address string
	// Token is the random code embedded in Address and handed to the allocator.
	Token    string
	ObjectID string
	ScriptID string
	Secure   bool

	target   EventTarget
	requests map[string]*Request
}

// path is the transport-level prefix this endpoint is registered under.
func (e *Endpoint) path() string {
	return endpointPath(e.Secure, e.Token)
}

func (e *Endpoint) ownedBy(o Owner) bool {
	switch o.kind {
	case ownerScript:
		return e.ScriptID == o.id
	case ownerObject:
		return e.ObjectID == o.id
	}
	return false
}

// EndpointInfo is a read-only copy of an Endpoint for callers outside the guard.
type EndpointInfo struct {
	Address  string
	Token    string
	ObjectID string
	ScriptID string
	Secure   bool
	Pending  int
}

func (e *Endpoint) info() EndpointInfo {
	return EndpointInfo{
		Address:  e.Address,
		Token:    e.Token,
		ObjectID: e.ObjectID,
		ScriptID: e.ScriptID,
		Secure:   e.Secure,
		Pending:  len(e.requests),
	}
}

type ownerKind int

const (
	ownerScript ownerKind = iota + 1
	ownerObject
)

// Owner selects endpoints for bulk release.
type Owner struct {
	kind ownerKind
	id   string
}

// ScriptOwner matches every endpoint allocated by the given script.
func ScriptOwner(scriptID string) Owner { return Owner{kind: ownerScript, id: scriptID} }

// ObjectOwner matches every endpoint allocated by scripts in the given object.
func ObjectOwner(objectID string) Owner { return Owner{kind: ownerObject, id: objectID} }

func (o Owner) String() string {
	switch o.kind {
	case ownerScript:
		return "script:" + o.id
	case ownerObject:
		return "object:" + o.id
	}
	return "unknown:" + o.id
}
