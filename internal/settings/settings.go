// Package settings reads the process environment a hook runs in.
package settings

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	EnvFileKey  = "ENV_FILE"
	CharmDirKey = "CHARM_DIR"
	UnitNameKey = "JUJU_UNIT_NAME"
	HookNameKey = "JUJU_HOOK_NAME"
	LogLevelKey = "LOG_LEVEL"
	HTTPPortKey = "HTTP_PORT"

	PublisherKey     = "PUBLISHER"
	ChangesTargetKey = "CHANGES_TARGET"

	// SnapshotFileName is the file, relative to the charm directory, that holds the
	// configuration persisted by the previous invocation.
	SnapshotFileName = ".juju-persistent-config"

	DefaultHTTPPort = 39080
)

// Settings is the resolved environment of one process.
type Settings struct {
	CharmDir      string
	UnitName      string
	HookName      string
	Publisher     string
	ChangesTarget string
	LogLevel      log.Level
	HTTPPort      int
}

// LoadDotEnv loads $ENV_FILE (default ".env") into the environment. A missing file is not
// an error.
func LoadDotEnv() {
	envFile := Getenv(EnvFileKey, ".env")
	if err := godotenv.Load(envFile); err != nil {
		log.WithField("file", envFile).Info("The .env file not found.")
	}
}

// FromEnv resolves Settings from the current environment.
func FromEnv() Settings {
	lvl, err := log.ParseLevel(Getenv(LogLevelKey, "info"))
	if err != nil {
		lvl = log.InfoLevel
	}
	port, err := strconv.Atoi(Getenv(HTTPPortKey, strconv.Itoa(DefaultHTTPPort)))
	if err != nil {
		port = DefaultHTTPPort
	}
	return Settings{
		CharmDir:      CharmDir(),
		UnitName:      UnitName(),
		HookName:      HookName(),
		Publisher:     os.Getenv(PublisherKey),
		ChangesTarget: os.Getenv(ChangesTargetKey),
		LogLevel:      lvl,
		HTTPPort:      port,
	}
}

// SnapshotPath is where the persisted configuration of this unit lives.
func (s Settings) SnapshotPath() string {
	return SnapshotPath(s.CharmDir)
}

// SnapshotPath joins root with the fixed snapshot file name.
func SnapshotPath(root string) string {
	return filepath.Join(root, SnapshotFileName)
}

// CharmDir returns the root directory of the current charm.
func CharmDir() string {
	return os.Getenv(CharmDirKey)
}

// UnitName returns the local unit ID.
func UnitName() string {
	return os.Getenv(UnitNameKey)
}

// HookName returns the name of the currently executing hook.
func HookName() string {
	if name := os.Getenv(HookNameKey); name != "" {
		return name
	}
	return filepath.Base(os.Args[0])
}

// Getenv retrieves the value of the environment variable named by the key.
func Getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func ParseBoolean(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
