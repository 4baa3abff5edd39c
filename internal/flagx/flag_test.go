package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-a", "localhost"},
			allowed: []string{"-config"},
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-s"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-c", "-t", "15"},
			allowed: []string{"-c", "-t"},
			want:    []string{"-c", "-t", "15"},
		},
		{
			name:    "repeated flags keep order",
			args:    []string{"-t", "1", "-r", "7", "-t", "2"},
			allowed: []string{"-t", "-r"},
			want:    []string{"-t", "1", "-r", "7", "-t", "2"},
		},
		{
			name:    "empty args",
			args:    []string{},
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/auth.json", ConfigPath([]string{"-c", "/etc/auth.json"}))
	assert.Equal(t, "/etc/auth.json", ConfigPath([]string{"-a", ":8000", "-config", "/etc/auth.json"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-c", "a.json", "-config=b.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}
