package clip

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// yamlClip is the YAML document shape of a clip record. Trigger payloads
// are raw JSON in the record and plain YAML values here.
type yamlClip struct {
	ClipID    string       `yaml:"clip_id,omitempty"`
	Name      string       `yaml:"name"`
	Layer     string       `yaml:"layer,omitempty"`
	Length    float64      `yaml:"length"`
	CreatedAt time.Time    `yaml:"created_at,omitempty"`
	UpdatedAt time.Time    `yaml:"updated_at,omitempty"`
	Targets   []yamlTarget `yaml:"targets"`
}

type yamlTarget struct {
	Ref       types.RefIdentity        `yaml:"refIdentity"`
	Keyframes []types.Keyframe         `yaml:"keyframes,omitempty"`
	Channels  *types.TransformChannels `yaml:"channels,omitempty"`
	Entries   []yamlEntry              `yaml:"entries,omitempty"`
}

type yamlEntry struct {
	TimeMs  int64 `yaml:"timeMs"`
	Payload any   `yaml:"payload"`
}

// MarshalYAML encodes rec as a YAML document.
func MarshalYAML(rec *types.ClipRecord) ([]byte, error) {
	doc := yamlClip{
		ClipID:    rec.ClipID,
		Name:      rec.Name,
		Layer:     rec.Layer,
		Length:    rec.Length,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Targets:   make([]yamlTarget, 0, len(rec.Targets)),
	}
	for _, t := range rec.Targets {
		yt := yamlTarget{Ref: t.Ref, Keyframes: t.Keyframes, Channels: t.Channels}
		for _, e := range t.Entries {
			var payload any
			if len(e.Payload) > 0 {
				if err := sonic.Unmarshal(e.Payload, &payload); err != nil {
					return nil, fmt.Errorf("%w: trigger payload at %dms: %v", types.ErrInvalidData, e.TimeMs, err)
				}
			}
			yt.Entries = append(yt.Entries, yamlEntry{TimeMs: e.TimeMs, Payload: payload})
		}
		doc.Targets = append(doc.Targets, yt)
	}
	return yaml.Marshal(&doc)
}

// UnmarshalYAML decodes a YAML clip document.
func UnmarshalYAML(data []byte) (*types.ClipRecord, error) {
	var doc yamlClip
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	rec := &types.ClipRecord{
		ClipID:    doc.ClipID,
		Name:      doc.Name,
		Layer:     doc.Layer,
		Length:    doc.Length,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Targets:   make([]types.TargetRecord, 0, len(doc.Targets)),
	}
	for _, yt := range doc.Targets {
		if !types.IsValidRefKind(yt.Ref.Kind) {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidRefKind, yt.Ref.Kind)
		}
		t := types.TargetRecord{Ref: yt.Ref, Keyframes: yt.Keyframes, Channels: yt.Channels}
		for _, e := range yt.Entries {
			payload, err := sonic.Marshal(e.Payload)
			if err != nil {
				return nil, fmt.Errorf("%w: trigger payload at %dms: %v", types.ErrInvalidData, e.TimeMs, err)
			}
			t.Entries = append(t.Entries, types.TriggerEntry{TimeMs: e.TimeMs, Payload: json.RawMessage(payload)})
		}
		rec.Targets = append(rec.Targets, t)
	}
	return rec, nil
}

// WriteYAML writes rec to w.
func WriteYAML(w io.Writer, rec *types.ClipRecord) error {
	data, err := MarshalYAML(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteYAMLFile writes rec to a YAML file at path.
func WriteYAMLFile(path string, rec *types.ClipRecord) error {
	data, err := MarshalYAML(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadYAMLFile reads a clip record from a YAML file.
func ReadYAMLFile(path string) (*types.ClipRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalYAML(data)
}
