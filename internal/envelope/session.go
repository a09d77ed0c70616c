package envelope

import "encoding/json"

// SessionState enumerates the lifecycle states carried by SessionStateData.
type SessionState int

const (
	SessionStart SessionState = iota
	// SessionEnd is reserved in the schema; no SDK path emits it today.
	SessionEnd
)

var sessionStateNames = map[SessionState]string{
	SessionStart: "start",
	SessionEnd:   "end",
}

var sessionStateFromName = map[string]SessionState{
	"start": SessionStart,
	"end":   SessionEnd,
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := sessionStateFromName[name]; ok {
		*s = v
	}
	return nil
}

// sessionEnvelopeName is the qualified schema name for session state events.
const sessionEnvelopeName = "com.pulsemetry.SessionState"

// SessionStateData is the payload emitted when a session starts.
type SessionStateData struct {
	State SessionState `json:"state"`
}

func (SessionStateData) BaseType() string { return "SessionStateData" }

func (SessionStateData) EnvelopeName() string { return sessionEnvelopeName }
