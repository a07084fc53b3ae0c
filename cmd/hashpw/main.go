// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/miniapp/internal/pkg/logger"
)

func main() {
	password := strings.Join(os.Args[1:], " ")
	if password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logger.Error().Err(err).Msg("Usage: hashpw <password> or pipe it on stdin")
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
