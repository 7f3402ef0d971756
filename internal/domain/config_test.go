package domain_test

import (
	"testing"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_ChangesNothing(t *testing.T) {
	cfg := domain.DefaultConfig()
	assert.Empty(t, cfg.Design)
	assert.Empty(t, cfg.Roots)
	assert.Nil(t, cfg.CollectAll)
	assert.False(t, cfg.CircularDesign)
}

func TestProjectConfig_OptionsDefaults(t *testing.T) {
	opts := domain.DefaultConfig().Options("/proj")
	assert.Equal(t, "/proj", opts.ProjectPath)
	assert.Equal(t, domain.DefaultDesignFile, opts.DesignFile)
	assert.True(t, opts.CollectAll)
	assert.True(t, opts.Defaults.NeedDeclarations)
	assert.True(t, opts.Defaults.NeedDepends)
	assert.True(t, opts.RequireDebugInfo)
	assert.True(t, opts.RecordHistory)
	assert.True(t, opts.UseCache)
}

func TestProjectConfig_OptionsOverrides(t *testing.T) {
	cfg := domain.ProjectConfig{
		Design:                  "arch.xml",
		Roots:                   []string{"build/classes"},
		CircularDesign:          true,
		CollectAll:              domain.BoolPtr(false),
		NeedDeclarationsDefault: domain.BoolPtr(false),
		NeedDependsDefault:      domain.BoolPtr(false),
		RequireDebugInfo:        domain.BoolPtr(false),
		History:                 domain.BoolPtr(false),
		Cache:                   domain.BoolPtr(false),
	}
	opts := cfg.Options(".")
	assert.Equal(t, "arch.xml", opts.DesignFile)
	assert.Equal(t, []string{"build/classes"}, opts.Roots)
	assert.True(t, opts.CircularDesign)
	assert.False(t, opts.CollectAll)
	assert.False(t, opts.Defaults.NeedDeclarations)
	assert.False(t, opts.Defaults.NeedDepends)
	assert.False(t, opts.RequireDebugInfo)
	assert.False(t, opts.RecordHistory)
	assert.False(t, opts.UseCache)
}

func TestProjectConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.ProjectConfig
		wantErr string
	}{
		{"empty", domain.ProjectConfig{}, ""},
		{"empty root", domain.ProjectConfig{Roots: []string{" "}}, "roots"},
		{"bad exclude", domain.ProjectConfig{Exclude: []string{"[abc"}}, "invalid exclude pattern"},
		{"metrics dir", domain.ProjectConfig{MetricsFile: "out/"}, "metrics_file"},
		{"good exclude", domain.ProjectConfig{Exclude: []string{"**/generated/**"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
