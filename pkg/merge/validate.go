package merge

import (
	"fmt"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

// validateSnapshots checks version ids and the structure of every snapshot
func validateSnapshots(snapshots []schema.Snapshot) error {
	if len(snapshots) == 0 {
		return ErrNoSnapshots
	}
	seen := make(map[string]bool, len(snapshots))
	for i := range snapshots {
		snap := &snapshots[i]
		if snap.Version == "" {
			return inputErrorf("", "", "", "snapshot %d has an empty version id", i)
		}
		if seen[snap.Version] {
			return fmt.Errorf("%w: %s", ErrDuplicateVersion, snap.Version)
		}
		seen[snap.Version] = true

		if err := validateMessages(snap, "", snap.Messages); err != nil {
			return err
		}
		if err := validateEnums(snap.Version, "", snap.Enums); err != nil {
			return err
		}
	}
	return nil
}

func validateMessages(snap *schema.Snapshot, parent string, messages []schema.Message) error {
	names := make(map[string]bool, len(messages))
	for i := range messages {
		msg := &messages[i]
		path := schema.JoinPath(parent, msg.Name)
		if msg.Name == "" {
			return inputErrorf(snap.Version, parent, "", "message with empty name")
		}
		if names[msg.Name] {
			return inputErrorf(snap.Version, path, "", "message declared twice")
		}
		names[msg.Name] = true

		if msg.MapEntry {
			if msg.Field(1) == nil || msg.Field(2) == nil {
				return inputErrorf(snap.Version, path, "", "map entry type must declare key (1) and value (2) fields")
			}
		}
		if err := validateFields(snap, path, msg); err != nil {
			return err
		}
		if err := validateMessages(snap, path, msg.Messages); err != nil {
			return err
		}
		if err := validateEnums(snap.Version, path, msg.Enums); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(snap *schema.Snapshot, path string, msg *schema.Message) error {
	numbers := make(map[int32]string, len(msg.Fields))
	names := make(map[string]bool, len(msg.Fields))
	for _, f := range msg.Fields {
		if f.Name == "" {
			return inputErrorf(snap.Version, path, "", "field #%d has an empty name", f.Number)
		}
		if f.Number <= 0 {
			return inputErrorf(snap.Version, path, f.Name, "field number must be positive, got %d", f.Number)
		}
		if other, ok := numbers[f.Number]; ok {
			return inputErrorf(snap.Version, path, f.Name, "field number %d already used by '%s'", f.Number, other)
		}
		if names[f.Name] {
			return inputErrorf(snap.Version, path, f.Name, "field declared twice")
		}
		numbers[f.Number] = f.Name
		names[f.Name] = true

		if f.Type.Kind == schema.KindUnknown {
			return inputErrorf(snap.Version, path, f.Name, "field has no type")
		}
		if f.Type.IsNamed() && f.Type.Name == "" {
			return inputErrorf(snap.Version, path, f.Name, "%s field has no type name", f.Type.Kind)
		}
		if f.Type.Kind == schema.KindMessage {
			if entry := snap.FindMessage(f.Type.Name); entry != nil && entry.MapEntry {
				if entry.Field(1) == nil || entry.Field(2) == nil {
					return inputErrorf(snap.Version, path, f.Name,
						"map entry %s is missing its key or value field", f.Type.Name)
				}
			}
		}
	}
	return nil
}

func validateEnums(version, parent string, enums []schema.Enum) error {
	names := make(map[string]bool, len(enums))
	for _, e := range enums {
		if e.Name == "" {
			return inputErrorf(version, parent, "", "enum with empty name")
		}
		if names[e.Name] {
			return inputErrorf(version, schema.JoinPath(parent, e.Name), "", "enum declared twice")
		}
		names[e.Name] = true
	}
	return nil
}

// validateMappings rejects malformed mappings and mappings naming a message absent from every version
func validateMappings(snapshots []schema.Snapshot, mappings []schema.FieldMapping) error {
	versions := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		versions[s.Version] = true
	}

	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			return &InputError{Message: m.Message, Field: m.Field, Reason: err.Error()}
		}
		for _, v := range m.Versions() {
			if !versions[v] {
				return inputErrorf(v, m.Message, m.Field, "field mapping references unknown version")
			}
		}

		found := false
		for i := range snapshots {
			if snapshots[i].FindMessage(m.Message) != nil {
				found = true
				break
			}
		}
		if !found {
			return &InputError{
				Message: m.Message,
				Field:   m.Field,
				Reason:  "field mapping references a message that no version declares",
				Err:     ErrUnknownMessage,
			}
		}
	}
	return nil
}
