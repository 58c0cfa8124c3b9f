package mediawiki

import (
	"context"
	"fmt"
)

const maxLoginRounds = 5

// Login negotiates a session with action=login. When the wiki answers
// NeedToken the request is sent again carrying the returned login token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := map[string]string{
		"lgname":     username,
		"lgpassword": password,
	}

	for round := 0; round < maxLoginRounds; round++ {
		var res loginResponse
		err := c.Query(ctx, map[string]string{"action": "login"}, form, &res)
		if err != nil {
			c.tel.ReportBroken(report_client_login, err)
			return fmt.Errorf("mediawiki: login: %w", err)
		}
		if res.Error != nil {
			c.lastError = res.Error.Code
			return &AuthError{Result: res.Error.Code, Reason: res.Error.Info}
		}

		switch res.Login.Result {
		case "Success":
			c.loggedIn = true
			c.lastError = ""
			c.username = username
			if res.Login.Username != "" {
				c.username = res.Login.Username
			}
			c.tel.ReportDebug(report_client_login, "logged in", c.username)
			return nil
		case "NeedToken":
			if res.Login.Token == "" {
				c.lastError = res.Login.Result
				return &AuthError{Result: res.Login.Result, Reason: "no login token in response"}
			}
			form["lgtoken"] = res.Login.Token
		default:
			c.lastError = res.Login.Result
			err := &AuthError{Result: res.Login.Result, Reason: res.Login.Reason}
			c.tel.ReportWarning(report_client_login, err)
			return err
		}
	}

	c.lastError = "NeedToken"
	return &AuthError{Result: "NeedToken", Reason: "token negotiation did not finish"}
}

// Logout ends the session and forgets the token and login state, even when
// the request fails.
func (c *Client) Logout(ctx context.Context) error {
	var form map[string]string
	if c.token != "" {
		form = map[string]string{"token": c.token}
	}

	var res logoutResponse
	err := c.Query(ctx, map[string]string{"action": "logout"}, form, &res)

	c.token = ""
	c.loggedIn = false
	c.lastError = ""

	if err != nil {
		c.tel.ReportWarning(report_client_logout, err)
		return fmt.Errorf("mediawiki: logout: %w", err)
	}
	if res.Error != nil {
		return res.Error
	}
	return nil
}
