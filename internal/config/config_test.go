package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "Godcmd": {"password": "", "admin_users": []},
  "DialogueArchiver": {
    "storage_type": "mongodb",
    "mongodb": {
      "enabled": true,
      "uri": "mongodb://db:27017/",
      "username": "archiver",
      "password": "secret",
      "database": "bot",
      "collection": "turns",
      "timeout": "3s"
    },
    "elasticsearch": {"enabled": false, "hosts": ["http://es:9200"], "index": "dialogues"}
  }
}`

func TestLoadArchiverBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	plugins, err := Load(path)
	require.NoError(t, err)

	a, err := plugins.Archiver()
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, StorageMongoDB, a.StorageType)
	require.NotNil(t, a.MongoDB)
	require.True(t, a.MongoDB.Enabled)
	require.Equal(t, "archiver", a.MongoDB.Username)
	require.Equal(t, Duration(3*time.Second), a.MongoDB.Timeout)
	require.Equal(t, []string{"http://es:9200"}, a.Elasticsearch.Hosts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestArchiverBlockAbsent(t *testing.T) {
	for name, data := range map[string]string{
		"empty file":  "",
		"no block":    `{"Godcmd": {}}`,
		"null block":  `{"DialogueArchiver": null}`,
		"empty block": `{"DialogueArchiver": {}}`,
	} {
		t.Run(name, func(t *testing.T) {
			plugins, err := Parse([]byte(data))
			require.NoError(t, err)
			a, err := plugins.Archiver()
			require.NoError(t, err)
			require.Nil(t, a)
		})
	}
}

func TestParseYAML(t *testing.T) {
	plugins, err := Parse([]byte("DialogueArchiver:\n  storage_type: mongodb\n  mongodb:\n    enabled: true\n    timeout: 2.5\n"))
	require.NoError(t, err)
	a, err := plugins.Archiver()
	require.NoError(t, err)
	require.Equal(t, Duration(2500*time.Millisecond), a.MongoDB.Timeout)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)

	plugins, err := Parse([]byte(`{"DialogueArchiver": {"mongodb": {"timeout": "soon"}}}`))
	require.NoError(t, err)
	_, err = plugins.Archiver()
	require.Error(t, err)
}

func TestNilPlugins(t *testing.T) {
	var p *Plugins
	a, err := p.Archiver()
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestResolveDisabled(t *testing.T) {
	cases := map[string]*Archiver{
		"nil block":       nil,
		"no storage type": {},
		"no mongo block":  {StorageType: StorageMongoDB},
		"mongo disabled":  {StorageType: StorageMongoDB, MongoDB: &MongoDB{URI: "mongodb://x"}},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := Resolve(a)
			require.NoError(t, err)
			d, ok := b.(Disabled)
			require.True(t, ok)
			require.NotEmpty(t, d.Reason)
		})
	}
}

func TestResolveMongoDefaults(t *testing.T) {
	b, err := Resolve(&Archiver{StorageType: StorageMongoDB, MongoDB: &MongoDB{Enabled: true}})
	require.NoError(t, err)
	require.Equal(t, Mongo{
		URI:        DefaultMongoURI,
		Database:   DefaultMongoDatabase,
		Collection: DefaultMongoCollection,
	}, b)
}

func TestResolveMongoExplicit(t *testing.T) {
	b, err := Resolve(&Archiver{StorageType: StorageMongoDB, MongoDB: &MongoDB{
		Enabled:    true,
		URI:        "mongodb://db:27017/",
		Username:   "u",
		Password:   "p",
		Database:   "bot",
		Collection: "turns",
		Timeout:    Duration(time.Second),
	}})
	require.NoError(t, err)
	require.Equal(t, Mongo{
		URI:        "mongodb://db:27017/",
		Username:   "u",
		Password:   "p",
		Database:   "bot",
		Collection: "turns",
		Timeout:    time.Second,
	}, b)
}

func TestResolveUnsupported(t *testing.T) {
	for _, st := range []StorageType{StorageElasticsearch, "redis"} {
		b, err := Resolve(&Archiver{StorageType: st, Elasticsearch: &Elasticsearch{Enabled: true}})
		require.ErrorIs(t, err, ErrUnsupportedBackend)
		require.Contains(t, err.Error(), string(st))
		require.Nil(t, b)
	}
}
