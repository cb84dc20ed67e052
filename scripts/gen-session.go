// ABOUTME: Generates signed drive_session cookie values for manual testing
// ABOUTME: Lets curl scripts hit protected routes without going through the login form

package main

import (
	"fmt"
	"os"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <upstream-token> <session-type>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Session types: valid, no-access\n")
		fmt.Fprintf(os.Stderr, "SESSION_SECRET must match the running server\n")
		os.Exit(1)
	}

	token := os.Args[1]
	sessionType := os.Args[2]

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		fmt.Fprintf(os.Stderr, "SESSION_SECRET is not set\n")
		os.Exit(1)
	}

	user := models.UserSummary{
		ID:       1,
		Fullname: "Demo User",
		Email:    "demo@example.com",
	}
	switch sessionType {
	case "valid":
		user.Access = true
	case "no-access":
		user.Access = false
	default:
		fmt.Fprintf(os.Stderr, "Unknown session type: %s\n", sessionType)
		os.Exit(1)
	}

	value, err := services.NewSessionStore(secret, false).Encode(models.Session{Token: token, User: user})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s=%s\n", services.SessionCookieName, value)
}
