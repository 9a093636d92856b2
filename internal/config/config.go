// Package config loads the host's plugin configuration file and resolves the
// DialogueArchiver block into a storage backend.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ArchiverName is the key of the archiver block in the plugin config file.
const ArchiverName = "DialogueArchiver"

const (
	DefaultMongoURI        = "mongodb://localhost:27017/"
	DefaultMongoDatabase   = "chatgpt-on-wechat"
	DefaultMongoCollection = "dialogues"
)

// ErrUnsupportedBackend is returned by Resolve for storage types that have no
// implementation.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// StorageType names a storage backend.
type StorageType string

const (
	StorageMongoDB       StorageType = "mongodb"
	StorageElasticsearch StorageType = "elasticsearch"
)

// Plugins holds the raw per-plugin blocks of a plugin config file.
type Plugins struct {
	blocks map[string]yaml.Node
}

// Load reads the plugin config file at path. The host writes it as JSON; YAML
// is accepted as well.
func Load(path string) (*Plugins, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes plugin config file contents.
func Parse(data []byte) (*Plugins, error) {
	blocks := make(map[string]yaml.Node)
	if strings.TrimSpace(string(data)) == "" {
		return &Plugins{blocks: blocks}, nil
	}
	if err := yaml.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("config: parse plugin config: %w", err)
	}
	return &Plugins{blocks: blocks}, nil
}

// Decode decodes the block named name into out. It reports false when the
// block is missing, null or empty.
func (p *Plugins) Decode(name string, out any) (bool, error) {
	if p == nil {
		return false, nil
	}
	node, ok := p.blocks[name]
	if !ok || isEmpty(&node) {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("config: decode %s: %w", name, err)
	}
	return true, nil
}

// Archiver returns the DialogueArchiver block, or nil when it is absent.
func (p *Plugins) Archiver() (*Archiver, error) {
	var a Archiver
	found, err := p.Decode(ArchiverName, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func isEmpty(n *yaml.Node) bool {
	switch n.Kind {
	case 0:
		return true
	case yaml.ScalarNode:
		return n.Tag == "!!null"
	case yaml.MappingNode, yaml.SequenceNode:
		return len(n.Content) == 0
	}
	return false
}

// Archiver is the DialogueArchiver configuration block.
type Archiver struct {
	StorageType   StorageType    `yaml:"storage_type"`
	MongoDB       *MongoDB       `yaml:"mongodb"`
	Elasticsearch *Elasticsearch `yaml:"elasticsearch"`
}

// MongoDB configures the MongoDB backend. Empty fields take the Default*
// values when resolved. Timeout bounds each write; zero means no bound.
type MongoDB struct {
	Enabled    bool     `yaml:"enabled"`
	URI        string   `yaml:"uri"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	Database   string   `yaml:"database"`
	Collection string   `yaml:"collection"`
	Timeout    Duration `yaml:"timeout"`
}

// Elasticsearch is parsed so existing config files load, but the backend is
// not implemented.
type Elasticsearch struct {
	Enabled bool     `yaml:"enabled"`
	Hosts   []string `yaml:"hosts"`
	Index   string   `yaml:"index"`
}

// Duration decodes either a Go duration string ("5s") or a number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var secs float64
	if err := n.Decode(&secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Backend is the resolved storage target. It is one of Disabled or Mongo.
type Backend interface {
	backend()
}

// Disabled turns every archiver handler into a no-op.
type Disabled struct {
	Reason string
}

// Mongo targets a MongoDB collection. All fields are populated.
type Mongo struct {
	URI        string
	Username   string
	Password   string
	Database   string
	Collection string
	Timeout    time.Duration
}

func (Disabled) backend() {}
func (Mongo) backend()    {}

// Resolve picks the backend for an archiver block. A nil block disables the
// feature; unknown storage types and elasticsearch fail with
// ErrUnsupportedBackend.
func Resolve(a *Archiver) (Backend, error) {
	if a == nil {
		return Disabled{Reason: "no config found"}, nil
	}
	switch a.StorageType {
	case "":
		return Disabled{Reason: "storage_type not set"}, nil
	case StorageMongoDB:
		if a.MongoDB == nil || !a.MongoDB.Enabled {
			return Disabled{Reason: "mongodb not enabled"}, nil
		}
		return a.MongoDB.resolve(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, a.StorageType)
	}
}

func (m *MongoDB) resolve() Mongo {
	return Mongo{
		URI:        or(m.URI, DefaultMongoURI),
		Username:   m.Username,
		Password:   m.Password,
		Database:   or(m.Database, DefaultMongoDatabase),
		Collection: or(m.Collection, DefaultMongoCollection),
		Timeout:    time.Duration(m.Timeout),
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
