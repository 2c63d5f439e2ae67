package diff

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// Analyzer analyzes differences between schema versions
type Analyzer struct {
	log     *logrus.Logger
	metrics *observability.MergeMetrics
}

// NewAnalyzer creates a new diff analyzer. A nil logger gets a default one; metrics may be nil.
func NewAnalyzer(log *logrus.Logger, metrics *observability.MergeMetrics) *Analyzer {
	if log == nil {
		log = logrus.New()
	}
	return &Analyzer{log: log, metrics: metrics}
}

// Compare compares two snapshots and returns the ordered list of changes.
// Messages and enums are matched by name. Fields are matched by name first, so a
// renumbered field is one NUMBER_CHANGED record; fields left over are matched by number.
func (a *Analyzer) Compare(from, to *schema.Snapshot) (*Result, error) {
	if from == nil || to == nil {
		return nil, errors.New("diff: both snapshots are required")
	}

	result := &Result{
		FromVersion: from.Version,
		ToVersion:   to.Version,
		Changes:     []Change{},
	}
	c := &comparison{}
	c.compareMessages("", from.Messages, to.Messages)
	c.compareEnums("", from.Enums, to.Enums)
	result.Changes = c.changes

	for _, ch := range result.Changes {
		if IsBreaking(ch) {
			a.metrics.RecordBreakingChange(string(ch.Type))
		}
	}
	a.log.Debugf("Compared %s", result)
	return result, nil
}

// CompareVersions diffs two versions of a merged schema by projecting each version back out
func (a *Analyzer) CompareVersions(u *unified.Schema, fromVersion, toVersion string) (*Result, error) {
	from, err := unified.Project(u, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to project %s: %w", fromVersion, err)
	}
	to, err := unified.Project(u, toVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to project %s: %w", toVersion, err)
	}
	return a.Compare(from, to)
}

// CompareChain diffs every adjacent pair of versions of a merged schema
func (a *Analyzer) CompareChain(u *unified.Schema) ([]*Result, error) {
	var results []*Result
	for i := 1; i < len(u.Versions); i++ {
		result, err := a.CompareVersions(u, u.Versions[i-1], u.Versions[i])
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// comparison accumulates changes in the order they are found
type comparison struct {
	changes []Change
}

func (c *comparison) add(change Change) {
	if change.Severity == "" {
		change.Severity = GetSeverity(change.Type)
	}
	if change.MigrationTip == "" && change.Severity != NonBreaking {
		change.MigrationTip = GetMigrationTip(change.Type)
	}
	c.changes = append(c.changes, change)
}

// compareMessages compares messages between versions
func (c *comparison) compareMessages(parent string, oldMessages, newMessages []schema.Message) {
	newByName := make(map[string]*schema.Message, len(newMessages))
	for i := range newMessages {
		if !newMessages[i].MapEntry {
			newByName[newMessages[i].Name] = &newMessages[i]
		}
	}
	oldNames := make(map[string]bool, len(oldMessages))

	for i := range oldMessages {
		oldMsg := &oldMessages[i]
		if oldMsg.MapEntry {
			continue
		}
		oldNames[oldMsg.Name] = true
		path := schema.JoinPath(parent, oldMsg.Name)

		newMsg, exists := newByName[oldMsg.Name]
		if !exists {
			c.add(Change{
				Type:        MessageRemoved,
				Message:     path,
				OldValue:    path,
				Description: fmt.Sprintf("Message '%s' was removed", path),
			})
			continue
		}
		c.compareFields(path, oldMsg, newMsg)
		c.compareMessages(path, oldMsg.Messages, newMsg.Messages)
		c.compareEnums(path, oldMsg.Enums, newMsg.Enums)
	}

	for i := range newMessages {
		newMsg := &newMessages[i]
		if newMsg.MapEntry || oldNames[newMsg.Name] {
			continue
		}
		path := schema.JoinPath(parent, newMsg.Name)
		c.add(Change{
			Type:        MessageAdded,
			Message:     path,
			NewValue:    path,
			Description: fmt.Sprintf("Message '%s' was added", path),
		})
	}
}

// compareFields compares fields within a message
func (c *comparison) compareFields(path string, oldMsg, newMsg *schema.Message) {
	pairs := matchFields(oldMsg, newMsg)

	matchedNew := make(map[int32]bool)
	for i := range oldMsg.Fields {
		oldField := &oldMsg.Fields[i]
		newField, ok := pairs[oldField.Number]
		if !ok {
			c.add(Change{
				Type:        Removed,
				Message:     path,
				Field:       oldField.Name,
				OldValue:    describeField(oldMsg, oldField),
				Description: fmt.Sprintf("Field '%s' was removed from message '%s'", oldField.Name, path),
			})
			continue
		}
		matchedNew[newField.Number] = true
		c.compareField(path, oldMsg, newMsg, oldField, newField)
	}

	for i := range newMsg.Fields {
		newField := &newMsg.Fields[i]
		if matchedNew[newField.Number] {
			continue
		}
		severity := NonBreaking
		if newField.Cardinality == schema.CardinalityRequired {
			severity = Breaking
		}
		c.add(Change{
			Type:         Added,
			Severity:     severity,
			Message:      path,
			Field:        newField.Name,
			NewValue:     describeField(newMsg, newField),
			Description:  fmt.Sprintf("Field '%s' was added to message '%s'", newField.Name, path),
			MigrationTip: addedTip(severity),
		})
	}
}

func addedTip(severity Severity) string {
	if severity == Breaking {
		return "Existing writers do not set this required field; populate it before rollout"
	}
	return ""
}

// matchFields pairs old fields with new ones, keyed by the old field number: by name first,
// then by number among the fields left unpaired
func matchFields(oldMsg, newMsg *schema.Message) map[int32]*schema.Field {
	pairs := make(map[int32]*schema.Field)
	used := make(map[int32]bool)

	for i := range oldMsg.Fields {
		oldField := &oldMsg.Fields[i]
		if newField := newMsg.FieldByName(oldField.Name); newField != nil {
			pairs[oldField.Number] = newField
			used[newField.Number] = true
		}
	}
	for i := range oldMsg.Fields {
		oldField := &oldMsg.Fields[i]
		if _, ok := pairs[oldField.Number]; ok {
			continue
		}
		if newField := newMsg.Field(oldField.Number); newField != nil && !used[newField.Number] {
			pairs[oldField.Number] = newField
			used[newField.Number] = true
		}
	}
	return pairs
}

func (c *comparison) compareField(path string, oldMsg, newMsg *schema.Message, oldField, newField *schema.Field) {
	name := newField.Name

	if oldField.Name != newField.Name {
		c.add(Change{
			Type:        Renamed,
			Message:     path,
			Field:       name,
			OldValue:    oldField.Name,
			NewValue:    newField.Name,
			Description: fmt.Sprintf("Field #%d renamed from '%s' to '%s'", newField.Number, oldField.Name, newField.Name),
		})
	}

	if oldField.Number != newField.Number {
		c.add(Change{
			Type:        NumberChanged,
			Message:     path,
			Field:       name,
			OldValue:    fmt.Sprintf("%d", oldField.Number),
			NewValue:    fmt.Sprintf("%d", newField.Number),
			Description: fmt.Sprintf("Field '%s' number changed from %d to %d (CRITICAL)", name, oldField.Number, newField.Number),
		})
	}

	oldMap, newMap := mapType(oldMsg, oldField), mapType(newMsg, newField)
	if t, ok := classifyTypeChange(oldField, newField, oldMap, newMap); ok {
		severity := Breaking
		if t.IsWidening() {
			severity = NonBreaking
		}
		oldType, newType := typeString(oldField, oldMap), typeString(newField, newMap)
		c.add(Change{
			Type:         TypeChanged,
			Severity:     severity,
			Message:      path,
			Field:        name,
			OldValue:     oldType,
			NewValue:     newType,
			Conflict:     t,
			Description:  fmt.Sprintf("Field '%s' type changed from '%s' to '%s' [%s]", name, oldType, newType, t),
			MigrationTip: GetMigrationTip(TypeChanged) + ": " + t.Note(),
		})
	}

	if oldMap == nil && newMap == nil && oldField.Cardinality != newField.Cardinality {
		severity := Warning
		if oldField.IsRepeated() != newField.IsRepeated() || newField.Cardinality == schema.CardinalityRequired {
			severity = Breaking
		}
		c.add(Change{
			Type:        LabelChanged,
			Severity:    severity,
			Message:     path,
			Field:       name,
			OldValue:    oldField.Cardinality.String(),
			NewValue:    newField.Cardinality.String(),
			Description: fmt.Sprintf("Field '%s' label changed from '%s' to '%s'", name, oldField.Cardinality, newField.Cardinality),
		})
	}

	if oldField.Oneof != newField.Oneof {
		c.add(Change{
			Type:        Moved,
			Message:     path,
			Field:       name,
			OldValue:    oneofLabel(oldField.Oneof),
			NewValue:    oneofLabel(newField.Oneof),
			Description: fmt.Sprintf("Field '%s' moved from %s to %s", name, oneofLabel(oldField.Oneof), oneofLabel(newField.Oneof)),
		})
	}
}

// classifyTypeChange returns the conflict type of a field's type change, if its type changed.
// Map fields compare keys and values; a map turning into a non-map field is incompatible.
func classifyTypeChange(oldField, newField *schema.Field, oldMap, newMap *schema.MapType) (conflict.Type, bool) {
	switch {
	case oldMap != nil && newMap != nil:
		if conflict.ClassifyTypes(oldMap.Key, newMap.Key) != conflict.None {
			return conflict.Incompatible, true
		}
		t := conflict.ClassifyTypes(oldMap.Value, newMap.Value)
		return t, t != conflict.None
	case oldMap != nil || newMap != nil:
		return conflict.Incompatible, true
	}
	t := conflict.ClassifyTypes(oldField.Type, newField.Type)
	return t, t != conflict.None
}

// mapType returns the key and value types of a map field, reading them from the
// entry message when the field does not carry them
func mapType(msg *schema.Message, f *schema.Field) *schema.MapType {
	if f.Map != nil {
		return f.Map
	}
	if f.Type.Kind != schema.KindMessage {
		return nil
	}
	entry := msg.Message(f.Type.SimpleName())
	if entry == nil || !entry.MapEntry || entry.Field(1) == nil || entry.Field(2) == nil {
		return nil
	}
	return &schema.MapType{Key: entry.Field(1).Type, Value: entry.Field(2).Type}
}

func typeString(f *schema.Field, m *schema.MapType) string {
	if m != nil {
		return fmt.Sprintf("map<%s, %s>", m.Key, m.Value)
	}
	return f.Type.String()
}

func describeField(msg *schema.Message, f *schema.Field) string {
	m := mapType(msg, f)
	t := typeString(f, m)
	if m == nil && f.IsRepeated() {
		t = "repeated " + t
	}
	return fmt.Sprintf("%s %s = %d", t, f.Name, f.Number)
}

func oneofLabel(name string) string {
	if name == "" {
		return "(no oneof)"
	}
	return "oneof " + name
}

// compareEnums compares enums between versions
func (c *comparison) compareEnums(parent string, oldEnums, newEnums []schema.Enum) {
	newByName := make(map[string]*schema.Enum, len(newEnums))
	for i := range newEnums {
		newByName[newEnums[i].Name] = &newEnums[i]
	}
	oldNames := make(map[string]bool, len(oldEnums))

	for i := range oldEnums {
		oldEnum := &oldEnums[i]
		oldNames[oldEnum.Name] = true
		path := schema.JoinPath(parent, oldEnum.Name)
		newEnum, exists := newByName[oldEnum.Name]
		if !exists {
			c.add(Change{
				Type:        EnumRemoved,
				Message:     path,
				OldValue:    path,
				Description: fmt.Sprintf("Enum '%s' was removed", path),
			})
			continue
		}
		c.compareEnumValues(path, oldEnum, newEnum)
	}

	for i := range newEnums {
		if oldNames[newEnums[i].Name] {
			continue
		}
		path := schema.JoinPath(parent, newEnums[i].Name)
		c.add(Change{
			Type:        EnumAdded,
			Message:     path,
			NewValue:    path,
			Description: fmt.Sprintf("Enum '%s' was added", path),
		})
	}
}

// compareEnumValues compares enum values by name
func (c *comparison) compareEnumValues(path string, oldEnum, newEnum *schema.Enum) {
	newByName := make(map[string]schema.EnumValue, len(newEnum.Values))
	for _, v := range newEnum.Values {
		newByName[v.Name] = v
	}
	oldNames := make(map[string]bool, len(oldEnum.Values))

	for _, oldValue := range oldEnum.Values {
		oldNames[oldValue.Name] = true
		newValue, exists := newByName[oldValue.Name]
		switch {
		case !exists:
			c.add(Change{
				Type:        ValueRemoved,
				Message:     path,
				Field:       oldValue.Name,
				OldValue:    fmt.Sprintf("%d", oldValue.Number),
				Description: fmt.Sprintf("Enum value '%s' was removed from enum '%s'", oldValue.Name, path),
			})
		case newValue.Number != oldValue.Number:
			c.add(Change{
				Type:        ValueNumberChanged,
				Message:     path,
				Field:       oldValue.Name,
				OldValue:    fmt.Sprintf("%d", oldValue.Number),
				NewValue:    fmt.Sprintf("%d", newValue.Number),
				Description: fmt.Sprintf("Enum value '%s' number changed from %d to %d", oldValue.Name, oldValue.Number, newValue.Number),
			})
		}
	}

	for _, newValue := range newEnum.Values {
		if oldNames[newValue.Name] {
			continue
		}
		c.add(Change{
			Type:        ValueAdded,
			Message:     path,
			Field:       newValue.Name,
			NewValue:    fmt.Sprintf("%d", newValue.Number),
			Description: fmt.Sprintf("Enum value '%s' was added to enum '%s'", newValue.Name, path),
		})
	}
}
