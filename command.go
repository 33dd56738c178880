package stomp

// CommandKind enumerates the STOMP verbs known to the codec.
type CommandKind uint8

const (
	// KindUnknown marks a protocol extension; the raw token is kept.
	KindUnknown CommandKind = iota
	// KindHeartbeat is the empty frame: an end-of-line with no command.
	KindHeartbeat
	KindConnect
	KindStomp
	KindConnected
	KindSend
	KindSubscribe
	KindUnsubscribe
	KindAck
	KindNack
	KindBegin
	KindCommit
	KindAbort
	KindDisconnect
	KindMessage
	KindReceipt
	KindError
)

var kindTokens = [...]string{
	KindUnknown:     "",
	KindHeartbeat:   "",
	KindConnect:     "CONNECT",
	KindStomp:       "STOMP",
	KindConnected:   "CONNECTED",
	KindSend:        "SEND",
	KindSubscribe:   "SUBSCRIBE",
	KindUnsubscribe: "UNSUBSCRIBE",
	KindAck:         "ACK",
	KindNack:        "NACK",
	KindBegin:       "BEGIN",
	KindCommit:      "COMMIT",
	KindAbort:       "ABORT",
	KindDisconnect:  "DISCONNECT",
	KindMessage:     "MESSAGE",
	KindReceipt:     "RECEIPT",
	KindError:       "ERROR",
}

var tokenKinds = func() map[string]CommandKind {
	m := make(map[string]CommandKind, len(kindTokens))
	for k, tok := range kindTokens {
		if tok != "" {
			m[tok] = CommandKind(k)
		}
	}
	return m
}()

func (k CommandKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindHeartbeat:
		return "heartbeat"
	}
	if int(k) < len(kindTokens) {
		return kindTokens[k]
	}
	return "unknown"
}

// Command is a parsed STOMP command. Known verbs compare equal to the Cmd*
// values; anything else is KindUnknown and keeps its token, so extensions
// pass through the codec unchanged.
type Command struct {
	kind  CommandKind
	token string
}

// Commands known to the codec.
var (
	CmdHeartbeat   = Command{kind: KindHeartbeat}
	CmdConnect     = Command{kind: KindConnect, token: "CONNECT"}
	CmdStomp       = Command{kind: KindStomp, token: "STOMP"}
	CmdConnected   = Command{kind: KindConnected, token: "CONNECTED"}
	CmdSend        = Command{kind: KindSend, token: "SEND"}
	CmdSubscribe   = Command{kind: KindSubscribe, token: "SUBSCRIBE"}
	CmdUnsubscribe = Command{kind: KindUnsubscribe, token: "UNSUBSCRIBE"}
	CmdAck         = Command{kind: KindAck, token: "ACK"}
	CmdNack        = Command{kind: KindNack, token: "NACK"}
	CmdBegin       = Command{kind: KindBegin, token: "BEGIN"}
	CmdCommit      = Command{kind: KindCommit, token: "COMMIT"}
	CmdAbort       = Command{kind: KindAbort, token: "ABORT"}
	CmdDisconnect  = Command{kind: KindDisconnect, token: "DISCONNECT"}
	CmdMessage     = Command{kind: KindMessage, token: "MESSAGE"}
	CmdReceipt     = Command{kind: KindReceipt, token: "RECEIPT"}
	CmdError       = Command{kind: KindError, token: "ERROR"}
)

// ParseCommand maps a command token to a Command. An empty token is the
// heartbeat; an unrecognised token yields a KindUnknown command.
func ParseCommand(token string) Command {
	if token == "" {
		return CmdHeartbeat
	}
	if k, ok := tokenKinds[token]; ok {
		return Command{kind: k, token: token}
	}
	return Command{kind: KindUnknown, token: token}
}

// Kind returns the command's verb.
func (c Command) Kind() CommandKind {
	return c.kind
}

// Known reports whether the command is one of the STOMP verbs or a heartbeat.
func (c Command) Known() bool {
	return c.kind != KindUnknown
}

// IsHeartbeat reports whether c is the empty heartbeat command.
func (c Command) IsHeartbeat() bool {
	return c.kind == KindHeartbeat
}

// String returns the wire token. The heartbeat has an empty token.
func (c Command) String() string {
	return c.token
}
