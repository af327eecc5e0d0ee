package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/voicetyped/composer/pkg/lg"
)

func TestComposerConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ComposerConfig
		wantErr bool
	}{
		{"memory", ComposerConfig{TemplateStore: "memory", StoreCBFailThreshold: 5}, false},
		{"database mixed case", ComposerConfig{TemplateStore: "Database", StoreCBFailThreshold: 1}, false},
		{"unknown store", ComposerConfig{TemplateStore: "redis", StoreCBFailThreshold: 5}, true},
		{"zero threshold", ComposerConfig{TemplateStore: "memory"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestComposerConfigHelpers(t *testing.T) {
	cfg := ComposerConfig{TemplateStore: "DATABASE", StoreCBResetTimeoutSec: 30}
	if !cfg.UsesDatabase() {
		t.Error("UsesDatabase() = false, want true")
	}
	if got := cfg.StoreResetTimeout(); got != 30*time.Second {
		t.Errorf("StoreResetTimeout() = %v", got)
	}
	if got := cfg.NamingSchemes(); !reflect.DeepEqual(got, []lg.NamingScheme{lg.SchemeCanonical}) {
		t.Errorf("NamingSchemes() = %v", got)
	}
	cfg.LegacyTemplateNames = true
	if got := cfg.NamingSchemes(); len(got) != 2 {
		t.Errorf("NamingSchemes() with legacy = %v", got)
	}
}
