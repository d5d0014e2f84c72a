package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/tickbook/tickbook/internal/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Name: ")
		name, _ := reader.ReadString('\n')
		name = strings.TrimSpace(name)

		fmt.Print("Email: ")
		email, _ := reader.ReadString('\n')
		email = strings.TrimSpace(email)

		fmt.Print("Password: ")
		passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
		password := string(passwordBytes)
		fmt.Println()

		fmt.Print("Confirm Password: ")
		confirmBytes, _ := term.ReadPassword(int(syscall.Stdin))
		confirm := string(confirmBytes)
		fmt.Println()

		if name == "" || email == "" {
			return fmt.Errorf("name and email are required")
		}
		if len(password) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		user := &model.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
		}
		if err := st.CreateUser(cmd.Context(), user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}
