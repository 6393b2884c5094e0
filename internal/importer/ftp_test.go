package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{"plain", "ftp://supplier.example.com/orders/2024-03.csv", "supplier.example.com:21", "/orders/2024-03.csv", false},
		{"explicit port", "ftp://supplier.example.com:2121/orders.csv", "supplier.example.com:2121", "/orders.csv", false},
		{"wrong scheme", "https://supplier.example.com/orders.csv", "", "", true},
		{"no path", "ftp://supplier.example.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestNewFTPClientDefaults(t *testing.T) {
	c := NewFTPClient(0, "", "")
	assert.Equal(t, 30*time.Second, c.timeout)
	assert.Equal(t, "anonymous", c.user)
	assert.Equal(t, "anonymous@", c.password)

	c = NewFTPClient(5*time.Second, "supplier", "secret")
	assert.Equal(t, 5*time.Second, c.timeout)
	assert.Equal(t, "supplier", c.user)
}
