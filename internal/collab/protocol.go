package collab

import "encoding/json"

// Message is the websocket envelope. Payload carries the type-specific body.
type Message struct {
	Type     string          `json:"type"`
	SchemeID string          `json:"schemeId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Message types.
const (
	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"
	TypeError   = "error"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// WelcomePayload greets a freshly connected client.
type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	SchemeID  string `json:"schemeId"`
	ServerSeq int64  `json:"serverSeq"`
}

// DocSyncPayload carries the full scheme document.
type DocSyncPayload struct {
	Scheme    json.RawMessage `json:"scheme"`
	ServerSeq int64           `json:"serverSeq"`
}

// PresencePayload is one user's live cursor and selection.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a world-space cursor position.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// Operation mutation types.
const (
	OpItemTransform = "item.transform"
	OpItemProps     = "item.props"
	OpItemCreate    = "item.create"
	OpItemDelete    = "item.delete"
	OpItemReparent  = "item.reparent"
	OpSchemeRename  = "scheme.rename"
	OpSchemeStyle   = "scheme.style"
)

// Operation is a single scheme mutation submitted by a client.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ItemID    string `json:"itemId,omitempty"`

	// item.transform: area field changes, keys x/y/w/h/r/px/py
	Area map[string]float64 `json:"area,omitempty"`

	// item.props: dotted-path writes into the item, e.g.
	// {"opacity": 50, "shapeProps.strokeColor": "#f00"}
	Props map[string]any `json:"props,omitempty"`

	// item.create
	Item     json.RawMessage `json:"item,omitempty"`
	ParentID string          `json:"parentId,omitempty"`

	// item.reparent
	NewParentID string `json:"newParentId,omitempty"`

	// scheme.rename
	Name string `json:"name,omitempty"`

	// scheme.style
	Style json.RawMessage `json:"style,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}
