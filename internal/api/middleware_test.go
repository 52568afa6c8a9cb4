package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:5555",
			want:       "192.0.2.1",
		},
		{
			name:       "proxy headers ignored when untrusted",
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "192.0.2.1",
		},
		{
			name:       "x-real-ip trusted",
			trustProxy: true,
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for first hop",
			trustProxy: true,
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			want:       "203.0.113.9",
		},
		{
			name:       "non-IP x-real-ip falls through",
			trustProxy: true,
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Real-IP": "not-an-ip; DROP TABLE"},
			want:       "192.0.2.1",
		},
		{
			name:       "non-IP x-forwarded-for falls through",
			trustProxy: true,
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Forwarded-For": "garbage, 10.0.0.1"},
			want:       "192.0.2.1",
		},
		{
			name:       "ipv6 normalized",
			trustProxy: true,
			remoteAddr: "192.0.2.1:5555",
			headers:    map[string]string{"X-Real-IP": "2001:DB8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trustProxy))
		})
	}
}
