package transport

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LooksLikeMobileLoginShell reports whether body is the actual
// /login/home mobile login page rather than a maintenance/interstitial
// page Steam occasionally serves instead. It parses the DOM looking for
// the login form Steam's mobile shell always renders, which is far more
// reliable than a substring search against arbitrary page text.
func LooksLikeMobileLoginShell(body string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return false
	}

	if doc.Find("#login_btn_signin").Length() > 0 {
		return true
	}
	if doc.Find("form#login_form").Length() > 0 {
		return true
	}
	// Steam's maintenance interstitial has no form at all, just a
	// message; a body with *no* form and no script tags is almost
	// certainly not the mobile login shell.
	return doc.Find("form").Length() > 0 || doc.Find("script").Length() > 0
}
