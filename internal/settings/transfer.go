package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Spotas/Ai-rewrite/internal/modes"
)

// ExportVersion is written to every exported document.
const ExportVersion = "2.0"

// ErrInvalidDocument is returned by Import when the document has no
// settings object.
var ErrInvalidDocument = errors.New("Invalid settings file format")

// Export builds the settings document. The API key is never written.
func Export(s Settings, stats Stats, now time.Time) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	statsBody, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}

	doc := []byte(`{}`)
	for _, step := range []func([]byte) ([]byte, error){
		func(d []byte) ([]byte, error) { return sjson.SetBytes(d, "version", ExportVersion) },
		func(d []byte) ([]byte, error) { return sjson.SetBytes(d, "timestamp", now.UTC().Format(time.RFC3339Nano)) },
		func(d []byte) ([]byte, error) { return sjson.SetRawBytes(d, "settings", body) },
		func(d []byte) ([]byte, error) { return sjson.SetRawBytes(d, "stats", statsBody) },
	} {
		if doc, err = step(doc); err != nil {
			return nil, fmt.Errorf("failed to build export document: %w", err)
		}
	}
	return []byte(gjson.GetBytes(doc, "@pretty").Raw), nil
}

// Imported is the part of a settings document that was present. Absent
// fields are nil so that importing merges over current settings.
type Imported struct {
	Version      string
	Preferences  Preferences
	CustomModes  map[string]modes.Custom
	EnabledModes []string
	Repaired     bool
}

// Import parses a settings document. Documents that are not strict JSON
// are repaired first.
func Import(data []byte) (Imported, error) {
	var out Imported

	if !gjson.ValidBytes(data) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		log.Warn().Msg("Settings document was not valid JSON, imported a repaired copy")
		data = []byte(fixed)
		out.Repaired = true
	}

	doc := gjson.ParseBytes(data)
	section := doc.Get("settings")
	if !section.IsObject() {
		return out, ErrInvalidDocument
	}
	out.Version = doc.Get("version").String()

	if err := json.Unmarshal([]byte(section.Raw), &out.Preferences); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	// Older documents carry the key under geminiApiKey.
	if out.Preferences.APIKey == nil {
		if k := section.Get("geminiApiKey"); k.Exists() && k.String() != "" {
			key := k.String()
			out.Preferences.APIKey = &key
		}
	}
	if out.Preferences.APIKey != nil && *out.Preferences.APIKey == "" {
		out.Preferences.APIKey = nil
	}

	if cm := section.Get("customModes"); cm.IsObject() {
		out.CustomModes = make(map[string]modes.Custom)
		var decodeErr error
		cm.ForEach(func(key, value gjson.Result) bool {
			c := modes.Custom{
				ModeKey:     key.String(),
				DisplayName: value.Get("name").String(),
				Template:    value.Get("prompt").String(),
			}
			if t := value.Get("createdAt"); t.Exists() {
				if ts, err := time.Parse(time.RFC3339Nano, t.String()); err == nil {
					c.CreatedAt = ts
				}
			}
			if c.Template == "" {
				decodeErr = fmt.Errorf("%w: custom mode %q has no prompt", ErrInvalidDocument, c.ModeKey)
				return false
			}
			if modes.IsBuiltIn(c.ModeKey) {
				decodeErr = fmt.Errorf("%w: %q", modes.ErrModeExists, c.ModeKey)
				return false
			}
			out.CustomModes[c.ModeKey] = c
			return true
		})
		if decodeErr != nil {
			return out, decodeErr
		}
	}

	if em := section.Get("enabledModes"); em.IsArray() {
		out.EnabledModes = []string{}
		for _, k := range em.Array() {
			if modes.IsBuiltIn(k.String()) {
				out.EnabledModes = append(out.EnabledModes, k.String())
			}
		}
		out.EnabledModes = EnabledInOrder(out.EnabledModes)
	}

	return out, nil
}
