package config

import (
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// structToMap flattens cfg into the nested map shape koanf expects from
// every Source.Load, using cfg's `koanf` struct tags.
func structToMap(cfg *Config) map[string]any {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return map[string]any{}
	}
	return k.Raw()
}
