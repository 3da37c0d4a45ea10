package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/treykane/auth-helper/internal/model"
	"github.com/treykane/auth-helper/internal/util"
)

// DecodeRecord converts a loosely typed field map into a HostRecord.
// project_name and server_id are required; a malformed server_port is
// dropped with a warning rather than failing the record.
func DecodeRecord(fields map[string]any) (model.HostRecord, []string, error) {
	var (
		rec      model.HostRecord
		warnings []string
	)
	for key, raw := range fields {
		v := stringify(raw)
		switch key {
		case model.FieldProjectName:
			rec.ProjectName = v
		case model.FieldProjectID:
			rec.ProjectID = v
		case model.FieldServerID:
			rec.ServerID = v
		case model.FieldServerName:
			rec.ServerName = v
		case model.FieldServerIP:
			rec.ServerIP = v
		case model.FieldServerPort:
			if v == "" {
				continue
			}
			port, err := strconv.Atoi(v)
			if err == nil {
				err = util.ValidatePort(port)
			}
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("server_port %q ignored: %v", v, err))
				continue
			}
			rec.ServerPort = port
		case model.FieldServerUser:
			rec.ServerUser = v
		case model.FieldServerNoSudo:
			if b, ok := raw.(bool); ok {
				rec.ServerNoSudo = b
			} else {
				rec.ServerNoSudo = util.Str2Bool(v)
			}
		case model.FieldProxyID:
			rec.ProxyID = v
		case model.FieldOSVersion:
			rec.OSVersion = v
		case model.FieldASN:
			rec.ASN = v
		default:
			if v == "" {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = map[string]string{}
			}
			rec.Extra[key] = v
		}
	}
	if rec.ProjectName == "" {
		return model.HostRecord{}, warnings, errors.New("missing project_name")
	}
	if rec.ServerID == "" {
		return model.HostRecord{}, warnings, errors.New("missing server_id")
	}
	return rec, warnings, nil
}

// DecodeJSON parses one JSON-encoded record value.
func DecodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if fields == nil {
		return nil, errors.New("decode record: empty value")
	}
	return fields, nil
}

// stringify renders a scalar the way the records were historically compared
// as text. Booleans keep the capitalised True/False spelling.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
