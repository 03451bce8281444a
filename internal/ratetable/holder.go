package ratetable

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Provider hands out the current tables snapshot.
type Provider interface {
	Get() Tables
}

// Static is a Provider that never changes. Handy in tests.
type Static Tables

func (s Static) Get() Tables { return Tables(s) }

// HolderOptions controls where the rates file is looked up.
type HolderOptions struct {
	ConfigName  string
	ConfigPaths []string
	Watch       bool
}

func defaultHolderOptions() HolderOptions {
	return HolderOptions{
		ConfigName: "rates",
		ConfigPaths: []string{
			"/var/lib/orderdesk/config", // volume-mounted config
			"/etc/orderdesk",
			".",
		},
		Watch: true,
	}
}

// Holder keeps the active rate tables and swaps them on file change.
type Holder struct {
	current atomic.Value // holds Tables
	log     *zap.Logger
}

// NewHolder loads rate tables with the default lookup paths.
func NewHolder(log *zap.Logger) (*Holder, error) {
	return NewHolderWithOptions(log, defaultHolderOptions())
}

// NewHolderWithOptions reads `<ConfigName>.yml` from the first matching path.
// A missing file falls back to Default(); an invalid one is an error.
func NewHolderWithOptions(log *zap.Logger, opts HolderOptions) (*Holder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratetable")

	v := viper.New()
	v.SetConfigName(opts.ConfigName)
	v.SetConfigType("yml")
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("ORDERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	tables := Default()
	if fromFile {
		decoded, err := decode(v)
		if err != nil {
			return nil, err
		}
		tables = decoded
	}
	tables = tables.Normalize()
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	h := &Holder{log: log}
	h.current.Store(tables)

	if fromFile {
		log.Info("rate tables loaded", zap.String("file", v.ConfigFileUsed()))
	} else {
		log.Info("rate tables file not found, using defaults")
	}

	if fromFile && opts.Watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decode(v)
			if err != nil {
				log.Warn("rate tables reload failed", zap.Error(err))
				return
			}
			updated = updated.Normalize()
			if err := updated.Validate(); err != nil {
				log.Warn("invalid rate tables ignored", zap.Error(err))
				return
			}
			h.current.Store(updated)
			log.Info("rate tables reloaded", zap.String("file", e.Name))
		})
	}

	return h, nil
}

func decode(v *viper.Viper) (Tables, error) {
	var t Tables
	if err := v.UnmarshalKey("rates", &t); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Get returns the active tables.
func (h *Holder) Get() Tables {
	return h.current.Load().(Tables)
}
