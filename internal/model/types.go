package model

import "strconv"

// Record field names as stored in the host directory.
const (
	FieldProjectName  = "project_name"
	FieldProjectID    = "project_id"
	FieldServerID     = "server_id"
	FieldServerName   = "server_name"
	FieldServerIP     = "server_ip"
	FieldServerPort   = "server_port"
	FieldServerUser   = "server_user"
	FieldServerNoSudo = "server_nosudo"
	FieldProxyID      = "proxy_id"
	FieldOSVersion    = "os_version"
	FieldASN          = "asn"
)

// DefaultSearchFields is the field priority used by free-text search.
var DefaultSearchFields = []string{
	FieldProjectName,
	FieldProjectID,
	FieldServerName,
	FieldServerID,
	FieldServerIP,
	FieldOSVersion,
	FieldASN,
}

// HostRecord is one server entry loaded from the host directory.
// Empty strings mean the field was absent in the source.
type HostRecord struct {
	ProjectName  string            `json:"project_name" yaml:"project_name"`
	ProjectID    string            `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	ServerID     string            `json:"server_id" yaml:"server_id"`
	ServerName   string            `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	ServerIP     string            `json:"server_ip,omitempty" yaml:"server_ip,omitempty"`
	ServerPort   int               `json:"server_port,omitempty" yaml:"server_port,omitempty"`
	ServerUser   string            `json:"server_user,omitempty" yaml:"server_user,omitempty"`
	ServerNoSudo bool              `json:"server_nosudo,omitempty" yaml:"server_nosudo,omitempty"`
	ProxyID      string            `json:"proxy_id,omitempty" yaml:"proxy_id,omitempty"`
	OSVersion    string            `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	ASN          string            `json:"asn,omitempty" yaml:"asn,omitempty"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Field returns the string form of the named field and whether it is present.
// Unknown names are looked up in Extra.
func (h HostRecord) Field(name string) (string, bool) {
	var v string
	switch name {
	case FieldProjectName:
		v = h.ProjectName
	case FieldProjectID:
		v = h.ProjectID
	case FieldServerID:
		v = h.ServerID
	case FieldServerName:
		v = h.ServerName
	case FieldServerIP:
		v = h.ServerIP
	case FieldServerPort:
		if h.ServerPort > 0 {
			v = strconv.Itoa(h.ServerPort)
		}
	case FieldServerUser:
		v = h.ServerUser
	case FieldServerNoSudo:
		if h.ServerNoSudo {
			v = "True"
		}
	case FieldProxyID:
		v = h.ProxyID
	case FieldOSVersion:
		v = h.OSVersion
	case FieldASN:
		v = h.ASN
	default:
		v = h.Extra[name]
	}
	return v, v != ""
}

// MatchResult is a HostRecord annotated with the field that matched a search.
// Exactly one of MatchedBy and ExactMatch is set.
type MatchResult struct {
	Record     HostRecord `json:"record"`
	MatchedBy  string     `json:"matched_by,omitempty"`
	ExactMatch string     `json:"exact_match,omitempty"`
}

// Action is the first CLI positional argument.
type Action string

const (
	ActionSearch Action = "search"
	ActionGo     Action = "go"
)

// DecisionKind tags a Decision.
type DecisionKind string

const (
	DecisionConnect      DecisionKind = "connect"
	DecisionAmbiguous    DecisionKind = "ambiguous"
	DecisionInvalidInput DecisionKind = "invalid"
)

// RenderMode tells the presentation layer how to print an ambiguous decision.
type RenderMode string

const (
	// RenderList groups hosts under project titles.
	RenderList RenderMode = "list"
	// RenderAmbiguous prints the "not found" / "ambiguous" banner and match info.
	RenderAmbiguous RenderMode = "ambiguous"
)

// ConnectBy names which resolved value is forwarded to the launcher.
type ConnectBy string

const (
	ConnectByServerID   ConnectBy = "server_id"
	ConnectByServerIP   ConnectBy = "server_ip"
	ConnectByFQDN       ConnectBy = "fqdn"
	ConnectByServerName ConnectBy = "server_name"
	ConnectByLiteral    ConnectBy = "literal"
)

// ConnectTarget is what a Connect decision resolved to. Record is nil for
// literal targets (bare IPs, hostnames and dial-anyway addresses).
type ConnectTarget struct {
	By      ConnectBy   `json:"by"`
	Literal string      `json:"literal,omitempty"`
	Project string      `json:"project,omitempty"`
	Record  *HostRecord `json:"record,omitempty"`
}

// Decision is the outcome of resolving one invocation.
type Decision struct {
	Kind    DecisionKind   `json:"kind"`
	Rule    string         `json:"rule"`
	Target  *ConnectTarget `json:"target,omitempty"`
	Matches []MatchResult  `json:"matches,omitempty"`
	Render  RenderMode     `json:"render,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// IsNotFound reports an ambiguous decision with no candidates.
func (d Decision) IsNotFound() bool {
	return d.Kind == DecisionAmbiguous && len(d.Matches) == 0
}

// ConnectionDescriptor is the structured hand-off to the external launcher.
type ConnectionDescriptor struct {
	Host      string   `json:"host"`
	Port      int      `json:"port,omitempty"`
	User      string   `json:"user,omitempty"`
	NoSudo    bool     `json:"nosudo,omitempty"`
	ProxyID   string   `json:"proxy_id,omitempty"`
	ServerID  string   `json:"server_id,omitempty"`
	Project   string   `json:"project,omitempty"`
	ExtraArgs []string `json:"extra_args,omitempty"`
}
