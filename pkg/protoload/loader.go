package protoload

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bufbuild/protocompile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

// Source names a version and the directory holding its .proto files
type Source struct {
	Version string
	Dir     string
}

// Loader compiles .proto files and converts them into version snapshots
type Loader struct {
	log *logrus.Logger
	// ImportPaths are extra directories searched for imports, after the version directory
	ImportPaths []string
}

// NewLoader creates a loader. A nil logger gets a default one.
func NewLoader(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{log: log}
}

// LoadSources compiles in-memory sources keyed by file name into a snapshot.
// Well-known imports such as google/protobuf/timestamp.proto resolve without sources.
func (l *Loader) LoadSources(ctx context.Context, version string, sources map[string]string) (*schema.Snapshot, error) {
	resolver := &protocompile.SourceResolver{
		Accessor: protocompile.SourceAccessorFromMap(sources),
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		if strings.HasSuffix(name, ".proto") {
			names = append(names, name)
		}
	}
	return l.compile(ctx, version, resolver, names)
}

// LoadDir compiles every .proto file below dir into a snapshot. Imports are resolved
// relative to dir, then against ImportPaths.
func (l *Loader) LoadDir(ctx context.Context, version, dir string) (*schema.Snapshot, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".proto" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .proto files found in %s", dir)
	}

	resolver := &protocompile.SourceResolver{
		ImportPaths: append([]string{dir}, l.ImportPaths...),
	}
	return l.compile(ctx, version, resolver, names)
}

// LoadAll loads every source concurrently, bounded by workers. The result keeps the order of sources.
func (l *Loader) LoadAll(ctx context.Context, sources []Source, workers int) ([]schema.Snapshot, error) {
	if workers <= 0 {
		workers = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	snapshots := make([]schema.Snapshot, len(sources))
	var mu sync.Mutex

	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			snap, err := l.LoadDir(ctx, src.Version, src.Dir)
			if err != nil {
				return err
			}

			mu.Lock()
			snapshots[i] = *snap
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (l *Loader) compile(ctx context.Context, version string, resolver protocompile.Resolver, names []string) (*schema.Snapshot, error) {
	sort.Strings(names)

	compiler := protocompile.Compiler{
		Resolver:       protocompile.WithStandardImports(resolver),
		SourceInfoMode: protocompile.SourceInfoNone,
	}
	files, err := compiler.Compile(ctx, names...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile version %s: %w", version, err)
	}

	snap := &schema.Snapshot{Version: version}
	for _, fd := range files {
		c := converter{pkg: string(fd.Package())}
		msgs := fd.Messages()
		for i := 0; i < msgs.Len(); i++ {
			snap.Messages = append(snap.Messages, c.message(msgs.Get(i)))
		}
		enums := fd.Enums()
		for i := 0; i < enums.Len(); i++ {
			snap.Enums = append(snap.Enums, c.enum(enums.Get(i)))
		}
	}

	l.log.Infof("Loaded version %s: %d files, %d messages, %d enums",
		version, len(files), len(snap.Messages), len(snap.Enums))
	return snap, nil
}

// converter turns descriptors of one file into the schema model. Type names are made
// relative to the file's package; types from other packages keep their full name.
type converter struct {
	pkg string
}

func (c converter) relative(name protoreflect.FullName) string {
	if c.pkg == "" {
		return string(name)
	}
	return strings.TrimPrefix(string(name), c.pkg+".")
}

func (c converter) message(md protoreflect.MessageDescriptor) schema.Message {
	msg := schema.Message{
		Name:     string(md.Name()),
		MapEntry: md.IsMapEntry(),
	}

	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		msg.Fields = append(msg.Fields, c.field(fields.Get(i)))
	}

	nested := md.Messages()
	for i := 0; i < nested.Len(); i++ {
		msg.Messages = append(msg.Messages, c.message(nested.Get(i)))
	}

	enums := md.Enums()
	for i := 0; i < enums.Len(); i++ {
		msg.Enums = append(msg.Enums, c.enum(enums.Get(i)))
	}
	return msg
}

func (c converter) field(fd protoreflect.FieldDescriptor) schema.Field {
	f := schema.Field{
		Name:        string(fd.Name()),
		Number:      int32(fd.Number()),
		Type:        c.typeRef(fd),
		Cardinality: cardinality(fd),
	}

	if oneof := fd.ContainingOneof(); oneof != nil && !oneof.IsSynthetic() {
		f.Oneof = string(oneof.Name())
	}

	if fd.IsMap() {
		f.Map = &schema.MapType{
			Key:   c.typeRef(fd.MapKey()),
			Value: c.typeRef(fd.MapValue()),
		}
	}
	return f
}

func (c converter) typeRef(fd protoreflect.FieldDescriptor) schema.TypeRef {
	switch kind := kindOf(fd.Kind()); kind {
	case schema.KindMessage:
		return schema.MessageType(c.relative(fd.Message().FullName()))
	case schema.KindEnum:
		return schema.EnumType(c.relative(fd.Enum().FullName()))
	default:
		return schema.Scalar(kind)
	}
}

func (c converter) enum(ed protoreflect.EnumDescriptor) schema.Enum {
	enum := schema.Enum{Name: string(ed.Name())}
	values := ed.Values()
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		enum.Values = append(enum.Values, schema.EnumValue{
			Name:   string(v.Name()),
			Number: int32(v.Number()),
		})
	}
	return enum
}

func cardinality(fd protoreflect.FieldDescriptor) schema.Cardinality {
	switch {
	case fd.Cardinality() == protoreflect.Repeated:
		return schema.CardinalityRepeated
	case fd.Cardinality() == protoreflect.Required:
		return schema.CardinalityRequired
	case fd.HasOptionalKeyword():
		return schema.CardinalityOptional
	default:
		return schema.CardinalitySingular
	}
}
