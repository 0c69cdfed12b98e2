package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeMobileLoginShell(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"signin button", `<html><body><button id="login_btn_signin"></button></body></html>`, true},
		{"login form", `<html><body><form id="login_form"></form></body></html>`, true},
		{"generic form", `<html><body><form></form></body></html>`, true},
		{"script only", `<html><body><script>x()</script></body></html>`, true},
		{"maintenance page", `<html><body><p>Steam is down for maintenance.</p></body></html>`, false},
		{"empty body", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, LooksLikeMobileLoginShell(c.body))
		})
	}
}
