/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{name: "integer", input: "1024", want: 1024},
		{name: "megabytes", input: "10M", want: 10 * 1024 * 1024},
		{name: "k8s suffix", input: "1Gi", want: 1024 * 1024 * 1024},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var jsonVal, yamlVal ByteSize
			jsonErr := json.Unmarshal([]byte(`"`+tt.input+`"`), &jsonVal)
			yamlErr := yaml.Unmarshal([]byte(tt.input), &yamlVal)
			if tt.wantErr {
				require.Error(t, jsonErr)
				require.Error(t, yamlErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			require.Equal(t, tt.want, jsonVal)
			require.Equal(t, tt.want, yamlVal)
		})
	}

	out, err := json.Marshal(ByteSize(10 * 1024 * 1024))
	require.NoError(t, err)
	require.Equal(t, `"10M"`, string(out))
}

func TestTimeDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeDuration
		wantErr bool
	}{
		{name: "nanoseconds", input: "1000", want: TimeDuration(time.Microsecond)},
		{name: "human-readable", input: "1h30m", want: TimeDuration(90 * time.Minute)},
		{name: "negative", input: "-5", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var jsonVal, yamlVal TimeDuration
			jsonErr := json.Unmarshal([]byte(`"`+tt.input+`"`), &jsonVal)
			yamlErr := yaml.Unmarshal([]byte(tt.input), &yamlVal)
			if tt.wantErr {
				require.Error(t, jsonErr)
				require.Error(t, yamlErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			require.Equal(t, tt.want, jsonVal)
			require.Equal(t, tt.want, yamlVal)
		})
	}

	out, err := yaml.Marshal(struct {
		Window TimeDuration `yaml:"window"`
	}{TimeDuration(10 * time.Second)})
	require.NoError(t, err)
	require.Equal(t, "window: 10s\n", string(out))
}
