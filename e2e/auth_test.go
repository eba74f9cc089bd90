//go:build e2e

package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// login performs login with the seeded account
func login(t *testing.T, page playwright.Page, email, password string) {
	t.Helper()
	_, err := page.Goto(baseURL + "/login")
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='email']").Fill(email))
	require.NoError(t, page.Locator("input[name='password']").Fill(password))
	require.NoError(t, page.Locator("button[type='submit']").Click())
}

func TestAuth_RedirectsToLogin(t *testing.T) {
	page := newPage(t)
	_, err := page.Goto(baseURL + "/")
	require.NoError(t, err)
	require.NoError(t, page.WaitForURL(baseURL+"/login"))

	visible, err := page.Locator("input[name='password']").IsVisible()
	require.NoError(t, err)
	assert.True(t, visible, "login form should be shown")
}

func TestAuth_LoginSuccess(t *testing.T) {
	page := newPage(t)
	login(t, page, testEmail, testPassword)
	require.NoError(t, page.WaitForURL(baseURL+"/"))
	waitForList(t, page)
	assert.Equal(t, testEmail, textOf(t, page.Locator(".user-email")))
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	page := newPage(t)
	login(t, page, testEmail, "wrong-password")

	errBox := page.Locator(".auth-error")
	require.NoError(t, errBox.WaitFor())
	assert.Equal(t, "Invalid email or password", textOf(t, errBox))
	assert.Equal(t, baseURL+"/login", page.URL())
}

func TestAuth_Logout(t *testing.T) {
	page := newPage(t)
	signUpFresh(t, page)

	require.NoError(t, page.Locator("a:has-text('Sign Out')").Click())
	require.NoError(t, page.WaitForURL(baseURL+"/login"))

	// session is gone, dashboard redirects back to login
	_, err := page.Goto(baseURL + "/")
	require.NoError(t, err)
	require.NoError(t, page.WaitForURL(baseURL+"/login"))
}

func TestAuth_SignupMismatch(t *testing.T) {
	page := newPage(t)
	_, err := page.Goto(baseURL + "/signup")
	require.NoError(t, err)
	require.NoError(t, page.Locator("input[name='email']").Fill("mismatch@example.com"))
	require.NoError(t, page.Locator("input[name='password']").Fill(testPassword))
	require.NoError(t, page.Locator("input[name='confirm']").Fill(testPassword+"x"))
	require.NoError(t, page.Locator("button[type='submit']").Click())

	errBox := page.Locator(".auth-error")
	require.NoError(t, errBox.WaitFor())
	assert.Equal(t, "Passwords do not match", textOf(t, errBox))
}

func TestAuth_UsersSeeOwnJobsOnly(t *testing.T) {
	first := newPage(t)
	signUpFresh(t, first)
	addJob(t, first, "Private Corp", "Dev", "", "")
	require.Equal(t, 1, cardCount(t, first))

	second := newPage(t)
	signUpFresh(t, second)
	assert.Equal(t, 0, cardCount(t, second))
	assert.Contains(t, textOf(t, second.Locator(".empty")), "No job applications yet")
}
