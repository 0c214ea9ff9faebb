package system

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evcare-vn/evcare_backend/config"
	pasetotoken "github.com/evcare-vn/evcare_backend/pkg/paseto"
)

func NewTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		email  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			switch pasetotoken.Role(role) {
			case pasetotoken.RoleCustomer, pasetotoken.RoleStaff,
				pasetotoken.RoleTechnician, pasetotoken.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to build token manager: %w", err)
			}

			tok, err := mgr.Issue(userID, pasetotoken.Role(role), email)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (ObjectID hex)")
	cmd.Flags().StringVar(&role, "role", string(pasetotoken.RoleCustomer), "customer, staff, technician or admin")
	cmd.Flags().StringVar(&email, "email", "", "email claim, optional")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
